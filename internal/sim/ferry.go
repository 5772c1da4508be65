package sim

import (
	"sync"

	"github.com/AlayenPL/Projekt-SO/internal/parklog"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
)

// Ferry is a Tower-shaped counting monitor that additionally carries a
// direction tag on every boarding event (§4.4). Grounded on
// original_source's Ferry::board/unboard/board_group/unboard_group.
type Ferry struct {
	cap int
	log *parklog.Emitter
	met *parkmetrics.Recorder

	mu          sync.Mutex
	cond        *sync.Cond
	onboard     int
	waitingVip  int
	waitingNorm int
	vipStreak   int
}

// NewFerry constructs a ferry monitor with the given capacity.
func NewFerry(cap int, log *parklog.Emitter, met *parkmetrics.Recorder) *Ferry {
	f := &Ferry{cap: cap, log: log, met: met}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Board admits a single visitor heading in direction d.
func (f *Ferry) Board(touristID int, vip bool, d Direction) {
	f.mu.Lock()
	if vip {
		f.waitingVip++
	} else {
		f.waitingNorm++
	}
	f.log.Emitf("FERRY", "QUEUE_JOIN id=%d vip=%d dir=%s wait_vip=%d wait_norm=%d",
		touristID, boolToInt(vip), d, f.waitingVip, f.waitingNorm)

	for !canAdmit(vip, 1, f.onboard, f.cap, f.waitingVip, f.waitingNorm, f.vipStreak) {
		f.cond.Wait()
	}

	if vip {
		f.waitingVip--
	} else {
		f.waitingNorm--
	}
	f.onboard++
	f.vipStreak = nextStreak(vip, f.vipStreak)

	f.log.Emitf("FERRY", "BOARD id=%d vip=%d dir=%s occ=%d/%d wait_vip=%d wait_norm=%d vip_streak=%d",
		touristID, boolToInt(vip), d, f.onboard, f.cap, f.waitingVip, f.waitingNorm, f.vipStreak)
	occ := f.onboard
	f.mu.Unlock()

	f.cond.Broadcast()
	f.recordOccupancy(occ)
	f.met.IncrementCounter("park.ferry.board", 1, nil)
}

// Unboard releases a single visitor's slot.
func (f *Ferry) Unboard(touristID int) {
	f.mu.Lock()
	if f.onboard > 0 {
		f.onboard--
	}
	f.log.Emitf("FERRY", "UNBOARD id=%d occ=%d/%d", touristID, f.onboard, f.cap)
	occ := f.onboard
	f.mu.Unlock()

	f.cond.Broadcast()
	f.recordOccupancy(occ)
	f.met.IncrementCounter("park.ferry.unboard", 1, nil)
}

// BoardGroup atomically reserves k slots for group gid heading in
// direction d.
func (f *Ferry) BoardGroup(gid, k int, vipLike bool, d Direction) {
	if k <= 0 {
		return
	}

	f.mu.Lock()
	if vipLike {
		f.waitingVip += k
	} else {
		f.waitingNorm += k
	}
	f.log.Emitf("FERRY", "GROUP_QUEUE_JOIN gid=%d k=%d vip_like=%d dir=%s wait_vip=%d wait_norm=%d",
		gid, k, boolToInt(vipLike), d, f.waitingVip, f.waitingNorm)

	for !canAdmit(vipLike, k, f.onboard, f.cap, f.waitingVip, f.waitingNorm, f.vipStreak) {
		f.cond.Wait()
	}

	if vipLike {
		f.waitingVip -= k
	} else {
		f.waitingNorm -= k
	}
	f.onboard += k
	f.vipStreak = nextStreak(vipLike, f.vipStreak)

	f.log.Emitf("FERRY", "GROUP_BOARD gid=%d k=%d vip_like=%d dir=%s occ=%d/%d wait_vip=%d wait_norm=%d vip_streak=%d",
		gid, k, boolToInt(vipLike), d, f.onboard, f.cap, f.waitingVip, f.waitingNorm, f.vipStreak)
	occ := f.onboard
	f.mu.Unlock()

	f.cond.Broadcast()
	f.recordOccupancy(occ)
	f.met.IncrementCounter("park.ferry.group_board", 1, nil)
}

// UnboardGroup releases k slots reserved by group gid.
func (f *Ferry) UnboardGroup(gid, k int) {
	if k <= 0 {
		return
	}

	f.mu.Lock()
	f.onboard -= k
	if f.onboard < 0 {
		f.onboard = 0
	}
	f.log.Emitf("FERRY", "GROUP_UNBOARD gid=%d k=%d occ=%d/%d", gid, k, f.onboard, f.cap)
	occ := f.onboard
	f.mu.Unlock()

	f.cond.Broadcast()
	f.recordOccupancy(occ)
	f.met.IncrementCounter("park.ferry.group_unboard", 1, nil)
}

func (f *Ferry) recordOccupancy(occ int) {
	f.met.RecordValue("park.ferry.occupancy", float64(occ), nil)
}
