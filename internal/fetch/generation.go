package fetch

import (
	"errors"
	"sync/atomic"
)

// ErrStale marks a result dropped because a newer load started after it.
var ErrStale = errors.New("fetch: stale result discarded")

// Generation hands out increasing load numbers. Only the newest one is
// allowed to apply its result.
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Begin() uint64 {
	return g.n.Add(1)
}

func (g *Generation) IsCurrent(gen uint64) bool {
	return g.n.Load() == gen
}
