package narrator

import (
	"sync"

	"github.com/koscakluka/ema-narrator/core/a11y"
)

type dedupResult int

const (
	dedupNew dedupResult = iota
	dedupDuplicate
	// dedupContended means another focus event held the lock. The event is
	// dropped rather than waited on since a newer one is being handled.
	dedupContended
)

// focusDeduplicator suppresses consecutive focus events for the same
// element. Only identity is compared, attribute changes on the same element
// are not reported.
type focusDeduplicator struct {
	mu       sync.Mutex
	previous a11y.ElementID
	seen     bool
}

func (d *focusDeduplicator) Observe(id a11y.ElementID) dedupResult {
	if !d.mu.TryLock() {
		return dedupContended
	}
	defer d.mu.Unlock()

	if d.seen && d.previous == id {
		return dedupDuplicate
	}
	d.previous = id
	d.seen = true
	return dedupNew
}
