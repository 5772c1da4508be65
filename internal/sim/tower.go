package sim

import (
	"sync"

	"github.com/AlayenPL/Projekt-SO/internal/parklog"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
)

// Tower is a counting admission monitor with VIP-bypass-plus-burst
// fairness, supporting both single-visitor and group-atomic reservation
// (§4.4). Grounded on original_source's Tower::enter/leave/enter_group/
// leave_group.
type Tower struct {
	cap int
	log *parklog.Emitter
	met *parkmetrics.Recorder

	mu           sync.Mutex
	cond         *sync.Cond
	inside       int
	waitingVip   int
	waitingNorm  int
	vipStreak    int
}

// NewTower constructs a tower monitor with the given capacity.
func NewTower(cap int, log *parklog.Emitter, met *parkmetrics.Recorder) *Tower {
	t := &Tower{cap: cap, log: log, met: met}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Enter admits a single visitor, blocking on capacity and the VIP/normal
// priority predicate.
func (t *Tower) Enter(touristID int, vip bool) {
	t.mu.Lock()
	if vip {
		t.waitingVip++
	} else {
		t.waitingNorm++
	}
	t.log.Emitf("TOWER", "QUEUE_JOIN id=%d vip=%d wait_vip=%d wait_norm=%d",
		touristID, boolToInt(vip), t.waitingVip, t.waitingNorm)

	for !canAdmit(vip, 1, t.inside, t.cap, t.waitingVip, t.waitingNorm, t.vipStreak) {
		t.cond.Wait()
	}

	if vip {
		t.waitingVip--
	} else {
		t.waitingNorm--
	}
	t.inside++
	t.vipStreak = nextStreak(vip, t.vipStreak)

	t.log.Emitf("TOWER", "ENTER id=%d vip=%d occ=%d/%d wait_vip=%d wait_norm=%d vip_streak=%d",
		touristID, boolToInt(vip), t.inside, t.cap, t.waitingVip, t.waitingNorm, t.vipStreak)
	occ := t.inside
	t.mu.Unlock()

	t.cond.Broadcast()
	t.recordOccupancy(occ)
	t.met.IncrementCounter("park.tower.enter", 1, nil)
}

// Leave releases a single visitor's slot.
func (t *Tower) Leave(touristID int) {
	t.mu.Lock()
	if t.inside > 0 {
		t.inside--
	}
	t.log.Emitf("TOWER", "LEAVE id=%d occ=%d/%d", touristID, t.inside, t.cap)
	occ := t.inside
	t.mu.Unlock()

	t.cond.Broadcast()
	t.recordOccupancy(occ)
	t.met.IncrementCounter("park.tower.leave", 1, nil)
}

// EnterGroup atomically reserves k slots for group gid, presenting as
// vipLike to the priority predicate. No other admission interleaves between
// reserving and occupying the k slots (§3 group-atomic invariant).
func (t *Tower) EnterGroup(gid, k int, vipLike bool) {
	if k <= 0 {
		return
	}

	t.mu.Lock()
	if vipLike {
		t.waitingVip += k
	} else {
		t.waitingNorm += k
	}
	t.log.Emitf("TOWER", "GROUP_QUEUE_JOIN gid=%d k=%d vip_like=%d wait_vip=%d wait_norm=%d",
		gid, k, boolToInt(vipLike), t.waitingVip, t.waitingNorm)

	for !canAdmit(vipLike, k, t.inside, t.cap, t.waitingVip, t.waitingNorm, t.vipStreak) {
		t.cond.Wait()
	}

	if vipLike {
		t.waitingVip -= k
	} else {
		t.waitingNorm -= k
	}
	t.inside += k
	t.vipStreak = nextStreak(vipLike, t.vipStreak)

	t.log.Emitf("TOWER", "GROUP_ENTER gid=%d k=%d vip_like=%d occ=%d/%d wait_vip=%d wait_norm=%d vip_streak=%d",
		gid, k, boolToInt(vipLike), t.inside, t.cap, t.waitingVip, t.waitingNorm, t.vipStreak)
	occ := t.inside
	t.mu.Unlock()

	t.cond.Broadcast()
	t.recordOccupancy(occ)
	t.met.IncrementCounter("park.tower.group_enter", 1, nil)
}

// LeaveGroup releases k slots reserved by group gid.
func (t *Tower) LeaveGroup(gid, k int) {
	if k <= 0 {
		return
	}

	t.mu.Lock()
	t.inside -= k
	if t.inside < 0 {
		t.inside = 0
	}
	t.log.Emitf("TOWER", "GROUP_LEAVE gid=%d k=%d occ=%d/%d", gid, k, t.inside, t.cap)
	occ := t.inside
	t.mu.Unlock()

	t.cond.Broadcast()
	t.recordOccupancy(occ)
	t.met.IncrementCounter("park.tower.group_leave", 1, nil)
}

func (t *Tower) recordOccupancy(occ int) {
	t.met.RecordValue("park.tower.occupancy", float64(occ), nil)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
