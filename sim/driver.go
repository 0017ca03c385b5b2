package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Driver fires tick at a fixed interval until stopped. Implementations must
// never run two ticks at once.
type Driver interface {
	Start(ctx context.Context, every time.Duration, tick func()) error
	Stop() error
}

// ScheduleDriver runs ticks on a gocron duration job in singleton mode, so a
// slow tick delays the next one instead of overlapping it.
type ScheduleDriver struct {
	mu    sync.Mutex
	log   *logrus.Entry
	sched gocron.Scheduler
	jobID uuid.UUID
	done  chan struct{}
}

func NewScheduleDriver(log *logrus.Entry) *ScheduleDriver {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ScheduleDriver{log: log}
}

func (d *ScheduleDriver) Start(ctx context.Context, every time.Duration, tick func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sched != nil {
		return ErrAlreadyRunning
	}
	if every <= 0 {
		return fmt.Errorf("tick interval must be > 0, got %s", every)
	}

	s, err := gocron.NewScheduler(gocron.WithLogger(cronLogger{d.log}))
	if err != nil {
		return fmt.Errorf("new scheduler: %w", err)
	}
	j, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(tick),
		gocron.WithName("tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule tick: %w", err)
	}

	d.sched = s
	d.jobID = j.ID()
	d.done = make(chan struct{})
	s.Start()

	d.log.WithFields(logrus.Fields{"job": d.jobID, "every": every}).Debug("tick driver started")

	go func(done chan struct{}) {
		select {
		case <-ctx.Done():
			_ = d.Stop()
		case <-done:
		}
	}(d.done)

	return nil
}

// JobID identifies the tick job while the driver runs.
func (d *ScheduleDriver) JobID() uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.jobID
}

// Stop shuts the scheduler down and waits for an in-flight tick. It is a
// no-op when not started.
func (d *ScheduleDriver) Stop() error {
	d.mu.Lock()
	s := d.sched
	if s == nil {
		d.mu.Unlock()
		return nil
	}
	d.sched = nil
	d.jobID = uuid.Nil
	close(d.done)
	d.mu.Unlock()

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	d.log.Debug("tick driver stopped")
	return nil
}

// ManualDriver never ticks on its own. Hosts that advance the simulation
// themselves (tests, fast backtests) call Fire or Engine.Tick directly.
type ManualDriver struct {
	mu      sync.Mutex
	tick    func()
	running bool
}

func (d *ManualDriver) Start(_ context.Context, _ time.Duration, tick func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return ErrAlreadyRunning
	}
	d.tick, d.running = tick, true
	return nil
}

func (d *ManualDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	return nil
}

// Running reports whether Start was called without a matching Stop.
func (d *ManualDriver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Fire runs n ticks while the driver is running.
func (d *ManualDriver) Fire(n int) {
	for range n {
		d.mu.Lock()
		tick, ok := d.tick, d.running
		d.mu.Unlock()
		if !ok {
			return
		}
		tick()
	}
}

// cronLogger adapts logrus to the gocron Logger interface.
type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) fields(args []any) *logrus.Entry {
	e := l.log.WithField("component", "gocron")
	for i := 0; i+1 < len(args); i += 2 {
		e = e.WithField(fmt.Sprint(args[i]), args[i+1])
	}
	return e
}

func (l cronLogger) Debug(msg string, args ...any) { l.fields(args).Debug(msg) }
func (l cronLogger) Info(msg string, args ...any)  { l.fields(args).Info(msg) }
func (l cronLogger) Warn(msg string, args ...any)  { l.fields(args).Warn(msg) }
func (l cronLogger) Error(msg string, args ...any) { l.fields(args).Error(msg) }
