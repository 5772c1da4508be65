package sim

import (
	"sync"
	"time"

	"github.com/AlayenPL/Projekt-SO/internal/parkrand"
)

// Visitor is a single park guest's coordination state. ID/Age/VIP are fixed
// at creation; admission, group binding, step slot and signal flags are
// mutated under the visitor's own mutex, and guardian/ward escort signaling
// under a distinct escort mutex — matching §5's "visitor's own mutex for
// admission/step slots; guardian's escort mutex (distinct)". Grounded on
// original_source's Tourist class.
type Visitor struct {
	ID  int
	Age int
	VIP bool

	park *Park

	GroupID int
	GuideID int
	Group   *GroupControl

	Guardian         *Visitor
	NoGuardian       bool
	GuardianOfUnder5 bool

	mu        sync.Mutex
	cond      *sync.Cond
	admitted  bool
	rejected  bool
	nextStep  Step
	stepReady bool
	stepEpoch int

	abortToReturn bool
	towerEvacuate bool

	escortMu    sync.Mutex
	escortCond  *sync.Cond
	escortEpoch int
}

// NewVisitor constructs an unadmitted, ungrouped visitor bound to park.
func NewVisitor(id, age int, vip bool, park *Park) *Visitor {
	v := &Visitor{ID: id, Age: age, VIP: vip, GroupID: -1, GuideID: -1, park: park}
	v.cond = sync.NewCond(&v.mu)
	v.escortCond = sync.NewCond(&v.escortMu)
	return v
}

// OnAdmitted marks the visitor admitted by the cashier and wakes its thread.
func (v *Visitor) OnAdmitted() {
	v.mu.Lock()
	v.admitted = true
	v.mu.Unlock()
	v.cond.Broadcast()
}

// OnRejected marks the visitor rejected by the cashier and wakes its thread.
func (v *Visitor) OnRejected() {
	v.mu.Lock()
	v.rejected = true
	v.mu.Unlock()
	v.cond.Broadcast()
}

// WaitAdmission blocks until the cashier has admitted or rejected the
// visitor, returning true if admitted.
func (v *Visitor) WaitAdmission() bool {
	v.mu.Lock()
	for !v.admitted && !v.rejected {
		v.cond.Wait()
	}
	admitted := v.admitted
	v.mu.Unlock()
	return admitted
}

// AssignToGroup binds the visitor to a freshly formed group.
func (v *Visitor) AssignToGroup(gid, guideID int, g *GroupControl) {
	v.mu.Lock()
	v.GroupID = gid
	v.GuideID = guideID
	v.Group = g
	v.mu.Unlock()
	v.cond.Broadcast()
}

// WaitGroupOrRejection blocks until the visitor is bound to a group, or
// rejected outright because the park closed before a group formed.
func (v *Visitor) WaitGroupOrRejection() bool {
	v.mu.Lock()
	for v.GroupID < 0 && !v.rejected {
		v.cond.Wait()
	}
	ok := v.GroupID >= 0
	v.mu.Unlock()
	return ok
}

// SetStep publishes the next step for the visitor and bumps its epoch.
func (v *Visitor) SetStep(s Step) {
	v.mu.Lock()
	v.nextStep = s
	v.stepReady = true
	v.stepEpoch++
	v.mu.Unlock()
	v.cond.Broadcast()
}

// WaitStep blocks until a step has been published and returns it along with
// its epoch, consuming the ready flag.
func (v *Visitor) WaitStep() (Step, int) {
	v.mu.Lock()
	for !v.stepReady {
		v.cond.Wait()
	}
	s := v.nextStep
	epoch := v.stepEpoch
	v.stepReady = false
	v.mu.Unlock()
	return s, epoch
}

// SetGuardian assigns a guardian, or latches NoGuardian when g is nil. When
// isUnder5 is true and a guardian was found, the guardian is additionally
// marked GuardianOfUnder5. It takes no lock; the guide calls it while
// forming the group, before the group's first step.
func (v *Visitor) SetGuardian(g *Visitor, isUnder5 bool) {
	v.Guardian = g
	if g == nil {
		v.NoGuardian = true
		return
	}
	v.NoGuardian = false
	if isUnder5 {
		g.GuardianOfUnder5 = true
	}
}

// SetAbortToReturn latches the segment-abort flag.
func (v *Visitor) SetAbortToReturn() {
	v.mu.Lock()
	v.abortToReturn = true
	v.mu.Unlock()
	v.cond.Broadcast()
}

// AbortToReturn reports whether the segment-abort flag is latched.
func (v *Visitor) AbortToReturn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.abortToReturn
}

// SetTowerEvacuate latches the tower-evacuation flag.
func (v *Visitor) SetTowerEvacuate() {
	v.mu.Lock()
	v.towerEvacuate = true
	v.mu.Unlock()
	v.cond.Broadcast()
}

// TowerEvacuate reports whether the tower-evacuation flag is latched.
func (v *Visitor) TowerEvacuate() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.towerEvacuate
}

// GuardianNotifyWardsReady signals this visitor's wards that it is ready to
// escort them through the step at the given epoch.
func (v *Visitor) GuardianNotifyWardsReady(epoch int) {
	v.escortMu.Lock()
	v.escortEpoch = epoch
	v.escortMu.Unlock()
	v.escortCond.Broadcast()
}

// ChildWaitForGuardianReady blocks the child until its guardian signals
// readiness for the given epoch, or the child's own abort flag fires —
// whichever happens first. No-op when the child has no guardian. Polls in
// short slices rather than a single indefinite cond.Wait so a
// SetAbortToReturn racing in on a different goroutine is never missed.
// where tags which stage the child was about to enter, for the
// GUARD CHILD_ABORT_WAIT log line emitted when the wait ends via abort
// rather than via the guardian's notification.
func (v *Visitor) ChildWaitForGuardianReady(epoch int, where string) {
	if v.Guardian == nil {
		return
	}
	g := v.Guardian
	const slice = 20 * time.Millisecond
	for {
		g.escortMu.Lock()
		ready := g.escortEpoch >= epoch
		g.escortMu.Unlock()
		if ready {
			return
		}
		if v.AbortToReturn() {
			if v.park != nil {
				v.park.log.Emitf("GUARD", "CHILD_ABORT_WAIT id=%d where=%s gid=%d", v.ID, where, v.GroupID)
			}
			return
		}
		time.Sleep(slice)
	}
}

// sleepInterruptibleMs sleeps in small slices, returning early once abort
// reports true (§4.8's tower sleep-in-slices pattern).
func sleepInterruptibleMs(totalMs int, abort func() bool) {
	const slice = 50 * time.Millisecond
	remaining := time.Duration(totalMs) * time.Millisecond
	for remaining > 0 {
		if abort() {
			return
		}
		d := slice
		if d > remaining {
			d = remaining
		}
		time.Sleep(d)
		remaining -= d
	}
}

// drawSegmentSleep draws the inter-stage walking time, applying the 1.5x
// multiplier when any member of the group is under 12 (§4.7 step 5).
func drawSegmentSleep(rng *parkrand.Source, minMs, maxMs int, hasChildUnder12 bool) time.Duration {
	base := rng.Int(minMs, maxMs)
	if hasChildUnder12 {
		base = base * 3 / 2
	}
	return time.Duration(base) * time.Millisecond
}

// Run is the visitor thread body of §4.8: arrive, wait on admission, then
// either the unsynchronized VIP route or the guided loop.
func (v *Visitor) Run() {
	v.park.log.Emitf("TOURIST", "ARRIVE id=%d age=%d vip=%d", v.ID, v.Age, boolToInt(v.VIP))
	v.park.EnqueueEntry(v)

	if !v.WaitAdmission() {
		v.park.log.Emitf("TOURIST", "LEAVE_NO_ENTRY id=%d", v.ID)
		return
	}

	if v.VIP {
		v.runVIP()
	} else {
		v.runGuided()
	}
}

func (v *Visitor) runVIP() {
	cfg := v.park.cfg
	rng := v.park.rng

	if v.Age < 15 {
		v.park.log.Emitf("VIP", "DENY_CHILD id=%d age=%d reason=NEEDS_GUARDIAN", v.ID, v.Age)
		v.park.ReportExit(v.ID)
		return
	}

	route := rng.Int(1, 2)
	v.park.log.Emitf("VIP", "START id=%d route=%d", v.ID, route)

	segmentSleep := func() {
		time.Sleep(time.Duration(rng.Int(cfg.SegmentMinMs, cfg.SegmentMaxMs)) * time.Millisecond)
	}

	dir := dirForRoute(route)

	bridgeCross := func() {
		v.park.Bridge.Enter(v.ID, dir)
		time.Sleep(time.Duration(rng.Int(cfg.BridgeMinMs, cfg.BridgeMaxMs)) * time.Millisecond)
		v.park.Bridge.Leave(v.ID)
	}

	towerVisit := func() {
		if v.Age <= 5 {
			v.park.log.Emitf("VIP", "TOWER_SKIP id=%d reason=AGE<=5", v.ID)
			return
		}
		v.park.Tower.Enter(v.ID, true)
		ms := rng.Int(cfg.TowerMinMs, cfg.TowerMaxMs)
		sleepInterruptibleMs(ms, v.AbortToReturn)
		v.park.Tower.Leave(v.ID)
	}

	ferryCross := func() {
		v.park.Ferry.Board(v.ID, true, dir)
		time.Sleep(time.Duration(cfg.FerryTMs) * time.Millisecond)
		v.park.Ferry.Unboard(v.ID)
	}

	if route == 1 {
		segmentSleep()
		bridgeCross()
		segmentSleep()
		towerVisit()
		segmentSleep()
		ferryCross()
		segmentSleep()
	} else {
		segmentSleep()
		ferryCross()
		segmentSleep()
		towerVisit()
		segmentSleep()
		bridgeCross()
		segmentSleep()
	}

	v.park.log.Emitf("VIP", "END id=%d", v.ID)
	v.park.ReportExit(v.ID)
}

func (v *Visitor) runGuided() {
	v.park.EnqueueGroupWait(v)

	if !v.WaitGroupOrRejection() {
		v.park.ReportExit(v.ID)
		return
	}

	v.park.log.Emitf("TOURIST", "GROUP_JOIN id=%d gid=%d guide=%d", v.ID, v.GroupID, v.GuideID)

	for {
		s, epoch := v.WaitStep()

		if s == StepExit {
			v.park.ReportExit(v.ID)
			v.Group.MarkDone(epoch)
			return
		}

		if v.AbortToReturn() && s != StepReturnK {
			s = StepReturnK
		}

		v.park.doStep(v, s, epoch)
		v.Group.MarkDone(epoch)
	}
}
