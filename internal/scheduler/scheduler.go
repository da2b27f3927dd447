package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crewarena/internal/combat"
	"crewarena/internal/config"
	"crewarena/internal/util"
)

var (
	ErrUnscheduledTick = errors.New("tick not issued by the scheduler")
	ErrUnknownBattle   = errors.New("unknown battle")
	ErrDuplicateBattle = errors.New("battle already scheduled")
)

// Timer is the handle returned by Clock.AfterFunc; *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// WallClock fires ticks on real time.
func WallClock() Clock { return wallClock{} }

type Options struct {
	Clock      Clock
	Logger     *slog.Logger
	OnFinished func(combat.Outcome)
	// Emit receives pipeline events tagged with their battle id.
	Emit func(battleID string, ev combat.Event)
}

// invokerKey marks contexts created by the scheduler's own timers.
type invokerKey struct{}

type entry struct {
	mu      sync.Mutex
	battle  *combat.Battle
	pipe    *combat.Pipeline
	rng     combat.Rand
	timer   Timer
	started bool
	stopped bool
	done    chan struct{}
}

func (e *entry) stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	if e.timer != nil {
		e.timer.Stop()
	}
	close(e.done)
}

// Scheduler ticks every registered battle at the configured rate. Ticks of
// one battle are serialized; different battles run independently.
type Scheduler struct {
	tc         *config.Tunables
	clock      Clock
	log        *slog.Logger
	onFinished func(combat.Outcome)
	emit       func(string, combat.Event)

	mu      sync.Mutex
	battles map[string]*entry
}

func New(tc *config.Tunables, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = WallClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		tc:         tc,
		clock:      opts.Clock,
		log:        opts.Logger,
		onFinished: opts.OnFinished,
		emit:       opts.Emit,
		battles:    map[string]*entry{},
	}
}

// Add registers a seeded battle with its own random source. It does not
// start ticking.
func (s *Scheduler) Add(b *combat.Battle, seed int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBattle, b.ID)
	}
	p := combat.NewPipeline(s.tc, s.log.With("battle_id", b.ID))
	if s.emit != nil {
		id := b.ID
		p.Emit = func(ev combat.Event) { s.emit(id, ev) }
	}
	s.battles[b.ID] = &entry{
		battle: b,
		pipe:   p,
		rng:    util.New(seed),
		done:   make(chan struct{}),
	}
	return nil
}

func (s *Scheduler) get(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.battles[id]
}

// Start schedules the first tick one period from now.
func (s *Scheduler) Start(id string) error {
	e := s.get(id)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknownBattle, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return nil
	}
	if e.battle.Status != combat.InProgress {
		return fmt.Errorf("start %s: %w", id, combat.ErrBattleNotStarted)
	}
	e.started = true
	s.log.Info("battle started", "battle_id", id, "period", s.tc.TickPeriod())
	e.timer = s.clock.AfterFunc(s.tc.TickPeriod(), s.fire(id))
	return nil
}

// Remove drops the battle record. A pending tick finds nothing and stops.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	e, ok := s.battles[id]
	delete(s.battles, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	e.stop()
	e.mu.Unlock()
	return true
}

func (s *Scheduler) fire(id string) func() {
	return func() {
		ctx := context.WithValue(context.Background(), invokerKey{}, s)
		if err := s.Tick(ctx, id); err != nil {
			s.log.Error("tick failed, battle halted", "battle_id", id, "err", err)
		}
	}
}

// Tick runs one pipeline step for the battle and reschedules while it is in
// progress. It only accepts contexts issued by this scheduler's timers.
func (s *Scheduler) Tick(ctx context.Context, id string) error {
	if ctx.Value(invokerKey{}) != s {
		s.log.Error("protocol violation: tick invoked outside scheduler", "battle_id", id)
		return ErrUnscheduledTick
	}
	e := s.get(id)
	if e == nil {
		s.log.Info("battle vanished, not rescheduling", "battle_id", id)
		return nil
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		s.log.Info("battle vanished, not rescheduling", "battle_id", id)
		return nil
	}
	if e.battle.Status != combat.InProgress {
		e.stop()
		e.mu.Unlock()
		return nil
	}

	next, err := runTick(e.pipe, e.battle, e.rng)
	if err != nil {
		e.stop()
		e.mu.Unlock()
		return err
	}
	e.battle = next

	outcome, finished := next.Outcome()
	if !finished {
		e.timer = s.clock.AfterFunc(s.tc.TickPeriod(), s.fire(id))
		e.mu.Unlock()
		return nil
	}
	// done is closed only after settlement has seen the outcome
	e.stopped = true
	e.mu.Unlock()

	if s.onFinished != nil {
		s.onFinished(outcome)
	}
	close(e.done)
	return nil
}

// runTick steps a copy of the battle so that a failed tick leaves the stored
// record untouched.
func runTick(p *combat.Pipeline, b *combat.Battle, rng combat.Rand) (next *combat.Battle, err error) {
	work := b.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			next, err = nil, fmt.Errorf("tick %s panicked: %v", b.ID, r)
		}
	}()
	if err := p.Tick(work, rng); err != nil {
		return nil, err
	}
	return work, nil
}

// Battle returns a copy of the current battle record.
func (s *Scheduler) Battle(id string) (*combat.Battle, bool) {
	e := s.get(id)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.battle.Snapshot(), true
}

// Wait returns a channel closed once the battle stops ticking for any reason.
// Unknown ids get an already closed channel.
func (s *Scheduler) Wait(id string) <-chan struct{} {
	e := s.get(id)
	if e == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return e.done
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.battles)
}
