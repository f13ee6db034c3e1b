package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// parseItemID parses a positional item id argument
func parseItemID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return id, nil
}

// intKeys converts a cobra string-to-int map into an id-keyed map
func intKeys(flag string, values map[string]int) (map[int]int, error) {
	result := make(map[int]int, len(values))
	for k, v := range values {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("--%s: invalid item id %q", flag, k)
		}
		result[id] = v
	}
	return result, nil
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeWarnings prints warnings one per line
func writeWarnings(w io.Writer, warnings []crafting.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWarnings:")
	for _, warning := range warnings {
		fmt.Fprintf(w, "  ! [%s] %s\n", warning.Kind, warning.Message)
	}
}
