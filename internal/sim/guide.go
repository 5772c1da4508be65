package sim

import "time"

// guideLoop is the group scheduler of §4.7: forms fixed-size groups off the
// group-formation FIFO, assigns guardians, picks a route, and drives the
// group through a sequence of synchronized steps until EXIT. Grounded on
// original_source's Park::guide_loop.
func (p *Park) guideLoop(guideID int) {
	groupSeq := 0
	p.log.Emitf("GUIDE", "START guide=%d", guideID)

	for p.IsOpen() {
		members := p.dequeueGroup(p.cfg.M)
		if len(members) == 0 {
			continue
		}

		gid := guideID*100000 + groupSeq
		groupSeq++

		p.assignGuardians(members, gid)

		route := p.rng.Int(1, 2)
		g := NewGroupControl(gid, route, guideID, members)
		for _, v := range members {
			v.AssignToGroup(gid, guideID, g)
		}

		p.log.Emitf("GUIDE", "GROUP_START guide=%d gid=%d route=%d", guideID, gid, route)

		p.runGroup(guideID, g, members)

		p.log.Emitf("GUIDE", "GROUP_END guide=%d gid=%d", guideID, gid)
	}

	p.log.Emit("GUIDE", "STOP")
}

// assignGuardians partitions members into adults (age ≥ 15) and children,
// picking a uniformly random adult guardian for each child (§4.7 step 3).
func (p *Park) assignGuardians(members []*Visitor, gid int) {
	var adults []*Visitor
	for _, v := range members {
		if v.Age >= 15 {
			adults = append(adults, v)
		}
	}

	for _, child := range members {
		if child.Age >= 15 {
			continue
		}
		isUnder5 := child.Age <= 5

		if len(adults) == 0 {
			child.SetGuardian(nil, isUnder5)
			p.log.Emitf("GUARD", "GUARD_NONE id=%d gid=%d", child.ID, gid)
			continue
		}

		guardian := adults[p.rng.Int(0, len(adults)-1)]
		child.SetGuardian(guardian, isUnder5)
		p.log.Emitf("GUARD", "GUARD_ASSIGN id=%d guardian=%d gid=%d", child.ID, guardian.ID, gid)
	}
}

// runGroup drives one group through its chosen route, broadcasting steps
// and injecting the segment-abort and tower-evacuation signals.
func (p *Park) runGroup(guideID int, g *GroupControl, members []*Visitor) {
	hasChildUnder12 := false
	for _, v := range members {
		if v.Age < 12 {
			hasChildUnder12 = true
			break
		}
	}

	stepAll := func(s Step) {
		epoch := g.BeginStep(s)
		for _, v := range members {
			v.SetStep(s)
		}
		g.WaitStepDone(epoch)
	}

	maybeSignal2 := func() bool {
		if !p.rng.Bool(p.cfg.Signal2Prob) {
			return false
		}
		p.log.Emitf("GUIDE", "SIGNAL2 guide=%d gid=%d", guideID, g.ID)
		for _, v := range members {
			v.SetAbortToReturn()
		}
		g.Abort()
		return true
	}

	maybeSignal1 := func() {
		if !p.rng.Bool(p.cfg.Signal1Prob) {
			return
		}
		p.log.Emitf("GUIDE", "SIGNAL1 guide=%d gid=%d", guideID, g.ID)
		for _, v := range members {
			v.SetTowerEvacuate()
		}
		g.Evacuate()
	}

	segment := func(from, to string) bool {
		if maybeSignal2() {
			stepAll(StepReturnK)
			return false
		}
		for _, v := range members {
			if v.AbortToReturn() {
				stepAll(StepReturnK)
				return false
			}
		}
		p.log.Emitf("GUIDE", "SEGMENT %s->%s gid=%d", from, to, g.ID)
		time.Sleep(drawSegmentSleep(p.rng, p.cfg.SegmentMinMs, p.cfg.SegmentMaxMs, hasChildUnder12))
		return true
	}

	route1 := func() {
		if !segment("K", "A") {
			return
		}
		stepAll(StepGoA)
		if !segment("A", "B") {
			return
		}
		maybeSignal1()
		stepAll(StepGoB)
		if !segment("B", "C") {
			return
		}
		stepAll(StepGoC)
		if !segment("C", "K") {
			return
		}
		stepAll(StepReturnK)
	}

	route2 := func() {
		if !segment("K", "C") {
			return
		}
		stepAll(StepGoC)
		if !segment("C", "B") {
			return
		}
		maybeSignal1()
		stepAll(StepGoB)
		if !segment("B", "A") {
			return
		}
		stepAll(StepGoA)
		if !segment("A", "K") {
			return
		}
		stepAll(StepReturnK)
	}

	if g.Route == 1 {
		route1()
	} else {
		route2()
	}

	stepAll(StepExit)
}
