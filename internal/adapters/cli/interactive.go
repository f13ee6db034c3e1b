package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/commands"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

const sessionHelp = `Commands:
  mode <id> <buy|sell|crafted>  value every occurrence of an ingredient this way
  reset                         clear all mode overrides
  qty <n>                       change the quantity to produce
  show                          print the tree and totals
  help                          print this help
  quit                          leave the session
`

// NewInteractiveCommand explores one item's tree by switching ingredient modes
func NewInteractiveCommand() *cobra.Command {
	flags := &calcFlags{}
	cmd := &cobra.Command{
		Use:   "interactive <item-id>",
		Short: "Explore buy/sell/crafted valuations of an item's tree",
		Long: `Builds the ingredient tree of an item, then reads commands from stdin.
Each mode change is recalculated by the background worker.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *App) error {
				plan, err := calculate(cmd.Context(), app, flags, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				session := NewSession(app.Mediator, plan.Tree, flags.quantity, out, !noColor && isTerminal(out))
				return session.Run(app.Context(cmd.Context()), cmd.InOrStdin())
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// Session is one interactive exploration of a tree. Overrides accumulate and are
// always applied to the tree the session started from.
type Session struct {
	mediator  common.Mediator
	base      *crafting.TreeNode
	quantity  int
	overrides map[int]crafting.Mode
	formatter *TreeFormatter
	out       io.Writer

	current *commands.RecalculateTreeResponse
}

// NewSession creates a session over tree
func NewSession(mediator common.Mediator, tree *crafting.TreeNode, quantity int, out io.Writer, useColors bool) *Session {
	if quantity < 1 {
		quantity = 1
	}
	return &Session{
		mediator:  mediator,
		base:      tree,
		quantity:  quantity,
		overrides: make(map[int]crafting.Mode),
		formatter: NewTreeFormatter(useColors),
		out:       out,
	}
}

// Current returns the latest recalculation, nil before the first one
func (s *Session) Current() *commands.RecalculateTreeResponse {
	return s.current
}

// Run recalculates once, shows the tree, then executes commands line by line until
// quit or end of input
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	if err := s.recalculate(ctx); err != nil {
		return err
	}
	s.show()
	fmt.Fprint(s.out, "Type 'help' for commands.\n")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		quit, err := s.Execute(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute runs one command line. Errors are user errors; the session stays usable.
func (s *Session) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(s.out, sessionHelp)
		return false, nil
	case "show":
		s.show()
		return false, nil
	case "reset":
		s.overrides = make(map[int]crafting.Mode)
	case "qty":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: qty <n>")
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil || n < 1 {
			return false, fmt.Errorf("quantity must be a positive integer, got %q", fields[1])
		}
		s.quantity = n
	case "mode":
		if len(fields) != 3 {
			return false, fmt.Errorf("usage: mode <id> <buy|sell|crafted>")
		}
		id, convErr := parseItemID(fields[1])
		if convErr != nil {
			return false, convErr
		}
		mode, ok := crafting.ParseMode(fields[2])
		if !ok {
			return false, fmt.Errorf("unknown mode %q", fields[2])
		}
		if !s.contains(id) {
			return false, fmt.Errorf("ingredient %d is not in this tree", id)
		}
		s.overrides[id] = mode
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", fields[0])
	}

	if err := s.recalculate(ctx); err != nil {
		return false, err
	}
	s.show()
	return false, nil
}

func (s *Session) contains(id int) bool {
	return len(s.base.FindAll(id)) > 0
}

func (s *Session) recalculate(ctx context.Context) error {
	overrides := make(map[int]crafting.Mode, len(s.overrides))
	for id, mode := range s.overrides {
		overrides[id] = mode
	}
	response, err := s.mediator.Send(ctx, &commands.RecalculateTreeCommand{
		Tree:           s.base,
		GlobalQuantity: s.quantity,
		ModeOverrides:  overrides,
	})
	if err != nil {
		return err
	}
	result, ok := response.(*commands.RecalculateTreeResponse)
	if !ok {
		return fmt.Errorf("unexpected response type %T", response)
	}
	s.current = result
	return nil
}

func (s *Session) show() {
	if s.current == nil {
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatModeTree(s.current.Tree))
	fmt.Fprintf(s.out, "\nQuantity %s: buy %s, sell %s, crafted %s\n",
		formatQuantity(s.quantity),
		formatCoins(s.current.Totals.TotalBuy),
		formatCoins(s.current.Totals.TotalSell),
		formatCoins(s.current.Totals.TotalCrafted))
	if len(s.overrides) > 0 {
		ids := make([]int, 0, len(s.overrides))
		for id := range s.overrides {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = fmt.Sprintf("%d=%s", id, s.overrides[id])
		}
		fmt.Fprintf(s.out, "Overrides: %s\n", strings.Join(parts, " "))
	}
	writeWarnings(s.out, s.current.Warnings)
}

