package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/api"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/catalog"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/metrics"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/persistence"
	"github.com/feanru/gw2-v18-sub001/internal/adapters/worker"
	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/config"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/database"
	"github.com/feanru/gw2-v18-sub001/internal/infrastructure/logging"
)

// App holds the wired engine for one CLI invocation
type App struct {
	Config     *config.Config
	Logger     common.Logger
	Mediator   common.Mediator
	Calculator *services.Calculator
	Dispatcher *worker.Dispatcher

	db           *gorm.DB
	stopMetrics  context.CancelFunc
	metricsError chan error
}

// NewApp wires catalog, engine, worker dispatch, mediator and metrics from configuration
func NewApp(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.NewLogger(&cfg.Logging),
	}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	tables, err := config.EngineTables(&cfg.Engine)
	if err != nil {
		return nil, err
	}

	source, writer, err := app.openCatalog()
	if err != nil {
		app.Close()
		return nil, err
	}

	var recipeCache *services.RecipeCache
	var resultCache *services.ResultCache
	if !cfg.Engine.Cache.Disabled {
		recipeCache = services.NewRecipeCache(cfg.Engine.Cache.RecipeTTL, cfg.Engine.Cache.CleanupInterval)
		resultCache = services.NewResultCache(cfg.Engine.Cache.ResultTTL, cfg.Engine.Cache.CleanupInterval)
	}
	app.Calculator = services.NewCalculator(source, tables, recipeCache, resultCache)

	handler := worker.NewHandler(services.NewModeRecalculator(tables))
	app.Dispatcher = worker.NewDispatcher(workerFactory(&cfg.Worker, handler), handler, cfg.Worker.QueueSize)

	app.Mediator = common.NewMediator()
	app.Mediator.Use(common.LoggingMiddleware())

	if cfg.Metrics.Enabled {
		if err := app.startMetrics(); err != nil {
			app.Close()
			return nil, err
		}
	}

	if err := app.registerHandlers(writer); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Context returns a context carrying the application logger
func (a *App) Context(parent context.Context) context.Context {
	return common.WithLogger(parent, a.Logger)
}

// Close releases the worker, the metrics server and the database
func (a *App) Close() {
	if a.Dispatcher != nil {
		_ = a.Dispatcher.Close()
	}
	if a.stopMetrics != nil {
		a.stopMetrics()
		if err := <-a.metricsError; err != nil {
			a.Logger.Log("WARNING", fmt.Sprintf("[Metrics] Server stopped with error: %v", err), nil)
		}
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}
}

// openCatalog returns the read side used by the calculator and the store imports write to
func (a *App) openCatalog() (crafting.Catalog, crafting.CatalogWriter, error) {
	cfg := a.Config
	switch cfg.Catalog.Source {
	case "file":
		dump, err := catalog.NewImporter().ImportFile(cfg.Catalog.FilePath)
		if err != nil {
			return nil, nil, err
		}
		memory := catalog.NewMemoryCatalog()
		memory.Snapshot(dump)
		return memory, memory, nil

	case "api":
		client := api.NewGW2Client(api.ClientConfig{
			BaseURL:           cfg.Catalog.API.BaseURL,
			Timeout:           cfg.Catalog.API.Timeout,
			RequestsPerSecond: float64(cfg.Catalog.API.RateLimit.Requests),
			Burst:             cfg.Catalog.API.RateLimit.Burst,
			BatchSize:         cfg.Catalog.API.BatchSize,
			Concurrency:       cfg.Catalog.API.Concurrency,
			Language:          cfg.Catalog.API.Language,
		})
		if cfg.Metrics.Enabled {
			collector := metrics.NewAPIMetricsCollector()
			if err := collector.Register(); err != nil {
				return nil, nil, fmt.Errorf("failed to register API metrics: %w", err)
			}
			client.SetMetrics(collector)
		}
		repo, err := a.openDatabase()
		if err != nil {
			return nil, nil, err
		}
		return client, repo, nil

	default:
		repo, err := a.openDatabase()
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}
}

func (a *App) openDatabase() (*persistence.GormCatalogRepository, error) {
	db, err := database.NewConnection(&a.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	a.db = db
	return persistence.NewGormCatalogRepository(db), nil
}

func (a *App) registerHandlers(writer crafting.CatalogWriter) error {
	if err := common.RegisterHandler[*commands.CalculateCraftingCommand](a.Mediator,
		commands.NewCalculateCraftingHandler(a.Calculator)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*commands.RecalculateTreeCommand](a.Mediator,
		commands.NewRecalculateTreeHandler(a.Dispatcher)); err != nil {
		return err
	}
	return common.RegisterHandler[*commands.ImportCatalogCommand](a.Mediator,
		commands.NewImportCatalogHandler(catalog.NewImporter(), writer, a.Calculator))
}

func (a *App) startMetrics() error {
	engineMetrics := metrics.NewCraftingMetricsCollector()
	if err := engineMetrics.Register(); err != nil {
		return fmt.Errorf("failed to register crafting metrics: %w", err)
	}
	a.Calculator.SetObserver(engineMetrics)
	a.Dispatcher.SetObserver(engineMetrics)

	commandMetrics := metrics.NewCommandMetricsCollector()
	if err := commandMetrics.Register(); err != nil {
		return fmt.Errorf("failed to register command metrics: %w", err)
	}
	a.Mediator.Use(metrics.PrometheusMiddleware(commandMetrics))

	ctx, cancel := context.WithCancel(context.Background())
	a.stopMetrics = cancel
	a.metricsError = make(chan error, 1)
	go func() {
		a.metricsError <- metrics.Serve(ctx, a.Config.Metrics.Address(), a.Config.Metrics.Path)
	}()
	a.Logger.Log("INFO", fmt.Sprintf("[Metrics] Serving on http://%s%s", a.Config.Metrics.Address(), a.Config.Metrics.Path), nil)
	return nil
}

func workerFactory(cfg *config.WorkerConfig, handler *worker.Handler) worker.Factory {
	switch cfg.Mode {
	case "process":
		args := []string{"worker"}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		return worker.ProcessFactory(cfg.BinaryPath, args...)
	case "local":
		return worker.LocalFactory(handler)
	default:
		return nil
	}
}
