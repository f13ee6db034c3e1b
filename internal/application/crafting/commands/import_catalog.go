package commands

import (
	"context"
	"fmt"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// CatalogImporter reads a catalog dump from disk
type CatalogImporter interface {
	ImportFile(path string) (*crafting.CatalogDump, error)
}

// CacheInvalidator drops state derived from the catalog
type CacheInvalidator interface {
	Invalidate()
}

// ImportCatalogCommand loads a catalog dump into the configured stores
type ImportCatalogCommand struct {
	Path string `validate:"required"`
}

// ImportCatalogResponse reports how much was imported
type ImportCatalogResponse struct {
	Items       int
	Recipes     int
	Prices      int
	Decorations int
}

// ImportCatalogHandler handles the ImportCatalog command
type ImportCatalogHandler struct {
	importer    CatalogImporter
	writer      crafting.CatalogWriter
	invalidator CacheInvalidator
}

// NewImportCatalogHandler creates a new ImportCatalogHandler. invalidator may be nil.
func NewImportCatalogHandler(importer CatalogImporter, writer crafting.CatalogWriter, invalidator CacheInvalidator) *ImportCatalogHandler {
	return &ImportCatalogHandler{
		importer:    importer,
		writer:      writer,
		invalidator: invalidator,
	}
}

// Handle executes the ImportCatalog command
func (h *ImportCatalogHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ImportCatalogCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ImportCatalogCommand")
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	logger := common.LoggerFromContext(ctx)

	dump, err := h.importer.ImportFile(cmd.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to import catalog: %w", err)
	}
	if err := h.writer.SaveCatalog(ctx, dump); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	if h.invalidator != nil {
		h.invalidator.Invalidate()
	}

	response := &ImportCatalogResponse{
		Items:       len(dump.Items),
		Recipes:     len(dump.Recipes),
		Prices:      len(dump.Prices),
		Decorations: len(dump.Decorations),
	}
	logger.Log("INFO", fmt.Sprintf("[Import] Imported %d items, %d recipes, %d prices from %s",
		response.Items, response.Recipes, response.Prices, cmd.Path), nil)

	return response, nil
}
