package services

import (
	"time"

	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
)

// Observer receives engine measurements. The metrics adapter implements it;
// a nil Observer is never called.
type Observer interface {
	RecordCalculation(duration time.Duration, cached bool, err error)
	RecordTreeSize(nodes, steps int)
	RecordWarnings(warnings []crafting.Warning)
	RecordCacheLookup(cache string, hit bool)
}
