package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// formatCoins renders copper as "1,234g 05s 67c", omitting leading zero denominations
func formatCoins(copper int) string {
	sign := ""
	if copper < 0 {
		sign = "-"
		copper = -copper
	}
	gold := copper / 10000
	silver := (copper / 100) % 100
	bronze := copper % 100

	switch {
	case gold > 0:
		return fmt.Sprintf("%s%sg %02ds %02dc", sign, humanize.Comma(int64(gold)), silver, bronze)
	case silver > 0:
		return fmt.Sprintf("%s%ds %02dc", sign, silver, bronze)
	default:
		return fmt.Sprintf("%s%dc", sign, bronze)
	}
}

// formatQuantity renders a count with thousands separators
func formatQuantity(n int) string {
	return humanize.Comma(int64(n))
}
