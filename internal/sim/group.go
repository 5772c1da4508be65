package sim

import "sync"

// resourceGate coordinates the "one tourist acts as coordinator per epoch"
// protocol used independently for the bridge, tower, and ferry crossings of
// a guided group (§4.8). Each resource the group touches gets its own gate
// so a group member waiting on the tower gate never blocks on the bridge
// gate's state.
type resourceGate struct {
	mu                   sync.Mutex
	cond                 *sync.Cond
	epochDone            int // epoch for which the crossing has completed
	inProgress           bool
	coordinatorTouristID int
}

func newResourceGate() *resourceGate {
	g := &resourceGate{epochDone: -1, coordinatorTouristID: -1}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// tryBecomeCoordinator returns true at most once per epoch: only the
// coordinator installed by resetForStep can claim it, and only while the
// epoch is neither done nor in progress. The winner must perform the
// crossing and call finish. Everyone else should call waitDone.
func (g *resourceGate) tryBecomeCoordinator(touristID, epoch int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epochDone >= epoch {
		return false
	}
	if g.inProgress {
		return false
	}
	if touristID != g.coordinatorTouristID {
		return false
	}
	g.inProgress = true
	return true
}

// resetForStep clears in_progress and installs the coordinator for the new
// step, ahead of any tryBecomeCoordinator calls against the new epoch.
func (g *resourceGate) resetForStep(coordinatorTouristID int) {
	g.mu.Lock()
	g.inProgress = false
	g.coordinatorTouristID = coordinatorTouristID
	g.mu.Unlock()
}

// finish marks the epoch's crossing complete and wakes every waiter.
func (g *resourceGate) finish(epoch int) {
	g.mu.Lock()
	g.epochDone = epoch
	g.inProgress = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

// waitDone blocks until the coordinator has finished this epoch's crossing.
func (g *resourceGate) waitDone(epoch int) {
	g.mu.Lock()
	for g.epochDone < epoch {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// GroupControl tracks the shared state of a single guided group: its fixed
// membership, chosen route, current step, a step barrier so every member
// observes the same step before any member moves past it, and one
// coordinator gate per shared resource the group's route touches.
// Grounded on original_source/include/group.hpp's Group class, which plays
// the same role of a shared per-group monitor distinct from any individual
// visitor's state.
type GroupControl struct {
	ID      int
	Route   int
	Members []*Visitor
	GuideID int

	mu        sync.Mutex
	cond      *sync.Cond
	step      Step
	epoch     int
	arrivedAt int // members that have called MarkDone for current epoch
	size      int

	aborted   bool
	evacuated bool

	bridgeGate *resourceGate
	towerGate  *resourceGate
	ferryGate  *resourceGate
}

// NewGroupControl builds the shared control block for a freshly formed
// group of the given members and guided route.
func NewGroupControl(id, route, guideID int, members []*Visitor) *GroupControl {
	g := &GroupControl{
		ID:         id,
		Route:      route,
		Members:    members,
		GuideID:    guideID,
		size:       len(members),
		step:       StepNone,
		epoch:      0,
		bridgeGate: newResourceGate(),
		towerGate:  newResourceGate(),
		ferryGate:  newResourceGate(),
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Size returns the fixed number of members in the group.
func (g *GroupControl) Size() int { return g.size }

// BeginStep advances the group to a new step and a new epoch, to be called
// by the guide only. Any stragglers still waiting on the previous epoch's
// barrier are released as part of the transition.
func (g *GroupControl) BeginStep(step Step) int {
	coordinator := pickCoordinatorFromVisitors(g.Members)
	g.bridgeGate.resetForStep(coordinator)
	g.towerGate.resetForStep(coordinator)
	g.ferryGate.resetForStep(coordinator)

	g.mu.Lock()
	g.step = step
	g.epoch++
	g.arrivedAt = 0
	epoch := g.epoch
	g.mu.Unlock()
	g.cond.Broadcast()
	return epoch
}

// CurrentStep returns the step currently in force along with its epoch, so
// a member can detect whether a notification it is about to act on is
// stale.
func (g *GroupControl) CurrentStep() (Step, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step, g.epoch
}

// MarkDone records that a member has finished acting on the current step.
// It does not block: once every member has marked done, the per-step
// barrier is complete and WaitStepDone returns.
func (g *GroupControl) MarkDone(epoch int) {
	g.mu.Lock()
	if epoch != g.epoch {
		g.mu.Unlock()
		return
	}
	g.arrivedAt++
	if g.arrivedAt >= g.size {
		g.cond.Broadcast()
	}
	g.mu.Unlock()
}

// WaitStepDone blocks the guide until every member has called MarkDone for
// the given epoch. Unlike MarkDone, the guide itself is not a member and
// never contributes to the completion count.
func (g *GroupControl) WaitStepDone(epoch int) {
	g.mu.Lock()
	for g.epoch == epoch && g.arrivedAt < g.size {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// Abort latches the group's forced-abort signal (segment-abort, §4.7).
func (g *GroupControl) Abort() {
	g.mu.Lock()
	g.aborted = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// IsAborted reports whether the segment-abort signal has been latched.
func (g *GroupControl) IsAborted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aborted
}

// Evacuate latches the group's forced tower-evacuation signal (§4.7).
func (g *GroupControl) Evacuate() {
	g.mu.Lock()
	g.evacuated = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// IsEvacuated reports whether the tower-evacuation signal has been latched.
func (g *GroupControl) IsEvacuated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evacuated
}

// TryBecomeCoordinatorBridge/Tower/Ferry and their Finish/WaitDone
// counterparts expose the per-resource coordinator-once-per-epoch protocol
// to visitor.go without leaking resourceGate's internals.

func (g *GroupControl) TryBecomeCoordinatorBridge(touristID, epoch int) bool {
	return g.bridgeGate.tryBecomeCoordinator(touristID, epoch)
}
func (g *GroupControl) FinishBridge(epoch int)      { g.bridgeGate.finish(epoch) }
func (g *GroupControl) WaitDoneBridge(epoch int)    { g.bridgeGate.waitDone(epoch) }

func (g *GroupControl) TryBecomeCoordinatorTower(touristID, epoch int) bool {
	return g.towerGate.tryBecomeCoordinator(touristID, epoch)
}
func (g *GroupControl) FinishTower(epoch int)   { g.towerGate.finish(epoch) }
func (g *GroupControl) WaitDoneTower(epoch int) { g.towerGate.waitDone(epoch) }

func (g *GroupControl) TryBecomeCoordinatorFerry(touristID, epoch int) bool {
	return g.ferryGate.tryBecomeCoordinator(touristID, epoch)
}
func (g *GroupControl) FinishFerry(epoch int)   { g.ferryGate.finish(epoch) }
func (g *GroupControl) WaitDoneFerry(epoch int) { g.ferryGate.waitDone(epoch) }
