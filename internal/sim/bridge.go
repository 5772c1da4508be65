package sim

import (
	"sync"

	"github.com/AlayenPL/Projekt-SO/internal/parklog"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
)

// Bridge is a directional one-at-a-time-per-direction crossing monitor.
// Grounded on original_source/include/resources.hpp + src/resources.cpp's
// Bridge: a single mutex/condvar pair guards direction and occupancy
// together so both are always observed consistently.
type Bridge struct {
	cap int
	log *parklog.Emitter
	met *parkmetrics.Recorder

	mu       sync.Mutex
	cond     *sync.Cond
	dir      Direction
	occupied int
}

// NewBridge constructs a bridge monitor with the given capacity.
func NewBridge(cap int, log *parklog.Emitter, met *parkmetrics.Recorder) *Bridge {
	b := &Bridge{cap: cap, log: log, met: met}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Enter blocks until the bridge's direction is compatible with d and there
// is spare capacity, then occupies one slot facing d.
func (b *Bridge) Enter(touristID int, d Direction) {
	b.mu.Lock()
	for !(b.dir == DirNone || b.dir == d) || b.occupied >= b.cap {
		b.cond.Wait()
	}

	if b.dir == DirNone {
		b.dir = d
		b.log.Emitf("BRIDGE", "BRIDGE_DIR_SET dir=%s", b.dir)
	}

	b.occupied++
	b.log.Emitf("BRIDGE", "ENTER id=%d dir=%s occ=%d/%d", touristID, d, b.occupied, b.cap)
	occ := b.occupied
	b.mu.Unlock()

	b.cond.Broadcast()
	b.recordOccupancy(occ)
	b.met.IncrementCounter("park.bridge.enter", 1, nil)
}

// Leave releases one slot; when the last occupant leaves, direction resets
// to None. Leaving an empty bridge is a clamped no-op (§4.3 fail-safe).
func (b *Bridge) Leave(touristID int) {
	b.mu.Lock()
	if b.occupied == 0 {
		b.mu.Unlock()
		return
	}

	b.occupied--
	b.log.Emitf("BRIDGE", "LEAVE id=%d occ=%d/%d", touristID, b.occupied, b.cap)

	if b.occupied == 0 {
		b.dir = DirNone
		b.log.Emit("BRIDGE", "BRIDGE_DIR_SET dir=NONE")
	}
	occ := b.occupied
	b.mu.Unlock()

	b.cond.Broadcast()
	b.recordOccupancy(occ)
	b.met.IncrementCounter("park.bridge.leave", 1, nil)
}

func (b *Bridge) recordOccupancy(occ int) {
	b.met.RecordValue("park.bridge.occupancy", float64(occ), nil)
}
