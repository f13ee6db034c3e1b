package crafting

import "github.com/feanru/gw2-v18-sub001/pkg/utils"

// InventoryPool tracks remaining owned quantities during one computation.
// It is consumed greedily and never refilled; callers pass a fresh copy per request.
type InventoryPool map[int]int

// NewInventoryPool copies owned counts into a new pool, dropping non-positive entries
func NewInventoryPool(owned map[int]int) InventoryPool {
	pool := make(InventoryPool, len(owned))
	for id, count := range owned {
		if count > 0 {
			pool[id] = count
		}
	}
	return pool
}

// Draw takes up to want units of id from the pool and returns how many were taken
func (p InventoryPool) Draw(id, want int) int {
	if p == nil || want <= 0 {
		return 0
	}
	available := p[id]
	if available <= 0 {
		return 0
	}
	drawn := utils.Min(available, want)
	p[id] = available - drawn
	return drawn
}

// Clone returns an independent copy of the pool
func (p InventoryPool) Clone() InventoryPool {
	cp := make(InventoryPool, len(p))
	for id, count := range p {
		cp[id] = count
	}
	return cp
}
