package sim

import "time"

// doStep is the group-aware step executor of §4.8: exactly one member
// (the group's per-resource coordinator) performs the shared monitor
// operation on behalf of the whole group; everyone else waits on that
// resource's gate. Grounded on park.hpp's do_step, whose body was not
// present in the extracted original sources — the control flow below is
// built directly from spec.md §4.8's prose.
func (p *Park) doStep(v *Visitor, s Step, epoch int) {
	g := v.Group

	switch s {
	case StepGoA:
		v.ChildWaitForGuardianReady(epoch, "A")
		p.doGoA(v, g, epoch)
	case StepGoB:
		v.ChildWaitForGuardianReady(epoch, "B")
		p.doGoB(v, g, epoch)
	case StepGoC:
		v.ChildWaitForGuardianReady(epoch, "C")
		p.doGoC(v, g, epoch)
	case StepReturnK:
		p.log.Emitf("TOURIST", "RETURN_K id=%d gid=%d", v.ID, g.ID)
		time.Sleep(200 * time.Millisecond)
	}

	v.GuardianNotifyWardsReady(epoch)
}

func (p *Park) doGoA(v *Visitor, g *GroupControl, epoch int) {
	dir := dirForRoute(g.Route)

	if g.TryBecomeCoordinatorBridge(v.ID, epoch) {
		for _, child := range g.Members {
			if child.NoGuardian {
				p.log.Emitf("GUARD", "DENY_NO_GUARD where=A id=%d gid=%d", child.ID, g.ID)
			}
		}

		p.Bridge.Enter(v.ID, dir)
		ms := p.rng.Int(p.cfg.BridgeMinMs, p.cfg.BridgeMaxMs)
		time.Sleep(time.Duration(ms) * time.Millisecond)
		p.Bridge.Leave(v.ID)

		g.FinishBridge(epoch)
		return
	}

	g.WaitDoneBridge(epoch)
}

func (p *Park) doGoB(v *Visitor, g *GroupControl, epoch int) {
	if g.TryBecomeCoordinatorTower(v.ID, epoch) {
		k, _ := towerEligible(g.Members)
		if k == 0 {
			p.log.Emitf("TOWER", "GROUP_SKIP gid=%d reason=NO_ELIGIBLE_MEMBERS", g.ID)
			g.FinishTower(epoch)
			return
		}

		p.Tower.EnterGroup(g.ID, k, false)

		if g.IsEvacuated() {
			p.log.Emitf("TOWER", "EVACUATE_GROUP gid=%d", g.ID)
			time.Sleep(100 * time.Millisecond)
		} else {
			ms := p.rng.Int(p.cfg.TowerMinMs, p.cfg.TowerMaxMs)
			sleepInterruptibleMs(ms, g.IsEvacuated)
		}

		p.Tower.LeaveGroup(g.ID, k)
		g.FinishTower(epoch)
		return
	}

	g.WaitDoneTower(epoch)
}

func (p *Park) doGoC(v *Visitor, g *GroupControl, epoch int) {
	dir := dirForRoute(g.Route)

	if g.TryBecomeCoordinatorFerry(v.ID, epoch) {
		k := ferryEligible(g.Members)
		if k == 0 {
			p.log.Emitf("FERRY", "GROUP_SKIP gid=%d reason=NO_ELIGIBLE_MEMBERS", g.ID)
			g.FinishFerry(epoch)
			return
		}

		p.Ferry.BoardGroup(g.ID, k, false, dir)
		time.Sleep(time.Duration(p.cfg.FerryTMs) * time.Millisecond)
		p.Ferry.UnboardGroup(g.ID, k)

		g.FinishFerry(epoch)
		return
	}

	g.WaitDoneFerry(epoch)
}

// towerEligible counts members eligible for the tower per §4.8 GO_B: a
// member is ineligible if age ≤ 5, is a guardian_of_under_5, is a child
// without a guardian, or is a child whose guardian is itself ineligible.
// Returns the eligible count and the set of ineligible members (for
// logging).
func towerEligible(members []*Visitor) (int, []*Visitor) {
	ineligible := func(m *Visitor) bool {
		if m.Age <= 5 {
			return true
		}
		if m.GuardianOfUnder5 {
			return true
		}
		if m.Age < 15 && m.NoGuardian {
			return true
		}
		if m.Age < 15 && m.Guardian != nil {
			if m.Guardian.Age <= 5 || m.Guardian.GuardianOfUnder5 {
				return true
			}
		}
		return false
	}

	k := 0
	var excluded []*Visitor
	for _, m := range members {
		if ineligible(m) {
			excluded = append(excluded, m)
			continue
		}
		k++
	}
	return k, excluded
}

// ferryEligible counts members eligible for the ferry per §4.8 GO_C: only
// children without a guardian are excluded (§9 Open Question resolution).
func ferryEligible(members []*Visitor) int {
	k := 0
	for _, m := range members {
		if m.Age < 15 && m.NoGuardian {
			continue
		}
		k++
	}
	return k
}
