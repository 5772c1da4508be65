package sim

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AlayenPL/Projekt-SO/internal/config"
	"github.com/AlayenPL/Projekt-SO/internal/parklog"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
	"github.com/AlayenPL/Projekt-SO/internal/parkrand"
)

// Park owns the three resource monitors, the cashier's admission queues, the
// group-formation queue, and the guide goroutines that drive guided groups
// through their routes. Grounded on original_source's Park struct; Go's
// errgroup replaces the original's raw std::thread/join bookkeeping, in the
// manner golang.org/x/sync's own doc example drives a worker fleet.
type Park struct {
	cfg *config.Config
	log *parklog.Emitter
	met *parkmetrics.Recorder
	rng *parkrand.Source

	Bridge *Bridge
	Tower  *Tower
	Ferry  *Ferry

	openMu sync.Mutex
	open   bool

	enteredMu sync.Mutex
	entered   int

	entryMu   sync.Mutex
	entryCond *sync.Cond
	entryVIP  []*Visitor
	entryNorm []*Visitor

	groupMu   sync.Mutex
	groupCond *sync.Cond
	groupWait []*Visitor

	exitMu   sync.Mutex
	exitCond *sync.Cond
	exitIDs  []int

	group *errgroup.Group
}

// NewPark constructs a park bound to cfg, logging through log, recording
// through met, and drawing randomness through rng.
func NewPark(cfg *config.Config, log *parklog.Emitter, met *parkmetrics.Recorder, rng *parkrand.Source) *Park {
	p := &Park{
		cfg:    cfg,
		log:    log,
		met:    met,
		rng:    rng,
		Bridge: NewBridge(cfg.X1, log, met),
		Tower:  NewTower(cfg.X2, log, met),
		Ferry:  NewFerry(cfg.X3, log, met),
		open:   true,
	}
	p.entryCond = sync.NewCond(&p.entryMu)
	p.groupCond = sync.NewCond(&p.groupMu)
	p.exitCond = sync.NewCond(&p.exitMu)
	return p
}

// IsOpen reports whether the park is still accepting admissions.
func (p *Park) IsOpen() bool {
	p.openMu.Lock()
	defer p.openMu.Unlock()
	return p.open
}

// Start launches the cashier and P guide goroutines under an errgroup.
func (p *Park) Start(ctx context.Context) {
	g, _ := errgroup.WithContext(ctx)
	p.group = g

	g.Go(func() error {
		p.cashierLoop()
		return nil
	})
	for i := 0; i < p.cfg.P; i++ {
		guideID := i
		g.Go(func() error {
			p.guideLoop(guideID)
			return nil
		})
	}
}

// Stop closes the park, wakes every waiting queue, and rejects any visitor
// still waiting for a group assignment, then blocks until every goroutine
// launched by Start has returned.
func (p *Park) Stop() {
	p.openMu.Lock()
	p.open = false
	p.openMu.Unlock()

	p.entryCond.Broadcast()
	p.groupCond.Broadcast()
	p.exitCond.Broadcast()

	p.groupMu.Lock()
	stranded := p.groupWait
	p.groupWait = nil
	p.groupMu.Unlock()
	for _, v := range stranded {
		v.OnRejected()
	}

	if p.group != nil {
		_ = p.group.Wait()
	}
}

// EnqueueEntry places a visitor into the VIP or normal admission FIFO.
func (p *Park) EnqueueEntry(v *Visitor) {
	p.entryMu.Lock()
	if v.VIP {
		p.entryVIP = append(p.entryVIP, v)
	} else {
		p.entryNorm = append(p.entryNorm, v)
	}
	p.entryMu.Unlock()
	p.entryCond.Signal()
}

// dequeueForCashier blocks until the park closes or an entrant is waiting,
// preferring the VIP FIFO over the normal FIFO.
func (p *Park) dequeueForCashier() *Visitor {
	p.entryMu.Lock()
	defer p.entryMu.Unlock()
	for p.IsOpen() && len(p.entryVIP) == 0 && len(p.entryNorm) == 0 {
		p.entryCond.Wait()
	}
	if len(p.entryVIP) > 0 {
		v := p.entryVIP[0]
		p.entryVIP = p.entryVIP[1:]
		return v
	}
	if len(p.entryNorm) > 0 {
		v := p.entryNorm[0]
		p.entryNorm = p.entryNorm[1:]
		return v
	}
	return nil
}

// EnqueueGroupWait places a non-VIP admitted visitor into the
// group-formation FIFO.
func (p *Park) EnqueueGroupWait(v *Visitor) {
	p.groupMu.Lock()
	p.groupWait = append(p.groupWait, v)
	p.groupMu.Unlock()
	p.groupCond.Signal()
}

// dequeueGroup blocks until M visitors are waiting or the park closes, then
// returns up to M of them (fewer only when the park closed early).
func (p *Park) dequeueGroup(m int) []*Visitor {
	p.groupMu.Lock()
	defer p.groupMu.Unlock()
	for p.IsOpen() && len(p.groupWait) < m {
		p.groupCond.Wait()
	}
	if len(p.groupWait) < m {
		if len(p.groupWait) == 0 {
			return nil
		}
		g := p.groupWait
		p.groupWait = nil
		return g
	}
	g := p.groupWait[:m]
	p.groupWait = p.groupWait[m:]
	return g
}

// ReportExit enqueues a visitor's exit for the cashier to log. Once the park
// has closed, the exit is logged directly instead, since the cashier's final
// drain may already have run.
func (p *Park) ReportExit(touristID int) {
	p.exitMu.Lock()
	if !p.IsOpen() {
		p.exitMu.Unlock()
		p.log.Emitf("CASHIER", "EXIT id=%d", touristID)
		return
	}
	p.exitIDs = append(p.exitIDs, touristID)
	p.exitMu.Unlock()
	p.exitCond.Signal()
}

func (p *Park) drainExits() {
	p.exitMu.Lock()
	ids := p.exitIDs
	p.exitIDs = nil
	p.exitMu.Unlock()
	for _, id := range ids {
		p.log.Emitf("CASHIER", "EXIT id=%d", id)
	}
}

// cashierLoop is the admission controller of §4.6: strict VIP priority,
// a hard lifetime cap, and opportunistic exit-report draining.
func (p *Park) cashierLoop() {
	p.log.Emit("CASHIER", "START")
	for p.IsOpen() {
		v := p.dequeueForCashier()
		if v == nil {
			continue
		}

		p.enteredMu.Lock()
		current := p.entered
		if current >= p.cfg.N {
			p.enteredMu.Unlock()
			p.log.Emitf("CASHIER", "REJECT id=%d reason=LIMIT_N", v.ID)
			v.OnRejected()
			continue
		}
		p.entered++
		after := p.entered
		p.enteredMu.Unlock()

		pay := 1
		if v.Age < 7 || v.VIP {
			pay = 0
		}
		p.log.Emitf("CASHIER", "ENTER id=%d age=%d vip=%d count=%d/%d pay=%d",
			v.ID, v.Age, boolToInt(v.VIP), after, p.cfg.N, pay)
		p.met.IncrementCounter("park.cashier.enter", 1, nil)
		v.OnAdmitted()

		p.drainExits()
	}
	p.drainExits()
	p.log.Emit("CASHIER", "STOP")
}
