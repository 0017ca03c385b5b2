package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rustyeddy/tradesim/account"
	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/internal/id"
	"github.com/rustyeddy/tradesim/internal/logger"
	"github.com/rustyeddy/tradesim/journal"
	"github.com/rustyeddy/tradesim/market"
	"github.com/rustyeddy/tradesim/pricing"
	"github.com/rustyeddy/tradesim/sim"
	"github.com/rustyeddy/tradesim/sink"
	"github.com/rustyeddy/tradesim/store"
	"github.com/sirupsen/logrus"
)

// session is everything one simulation run needs, wired from the config.
type session struct {
	cfg   *config.Config
	log   *logger.Logger
	runID string
	seed  uint64

	store   store.BlobStore
	history *journal.BlobJournal
	sqlite  *journal.SQLiteJournal
	journal journal.Journal
	console *sink.Console
	engine  *sim.Engine

	closers []io.Closer
}

func openStore(cfg config.StoreConfig) (store.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemory(), nil
	default:
		s, err := store.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return s, nil
	}
}

// openStoreOrMemory opens the configured store, falling back to an
// in-memory one when it cannot be opened. Nothing written then outlives
// the process.
func openStoreOrMemory(cfg config.StoreConfig, log *logger.Logger) store.BlobStore {
	bs, err := openStore(cfg)
	if err != nil {
		log.WithComponent("store").WithError(err).WithField("path", cfg.Path).
			Warn("store unavailable, keeping history in memory")
		return store.NewMemory()
	}
	return bs
}

// openSession builds the store, journals, sinks and engine for one run.
// The engine is not started.
func openSession(cfg *config.Config, log *logger.Logger, drv sim.Driver, out io.Writer) (*session, error) {
	s := &session{cfg: cfg, log: log, runID: id.New(), seed: cfg.Simulation.Seed}
	if s.seed == 0 {
		s.seed = uint64(time.Now().UnixNano())
	}

	ok := false
	defer func() {
		if !ok {
			_ = s.Close()
		}
	}()

	bs := openStoreOrMemory(cfg.Store, log)
	s.store = bs
	if c, isCloser := bs.(io.Closer); isCloser {
		s.closers = append(s.closers, c)
	}

	s.history = journal.NewBlobJournal(bs, log.WithComponent("history"))
	past := s.history.Load()

	sinks := journal.Multi{s.history}
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		sinks = append(sinks, j)
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		s.sqlite = j.ForRun(s.runID)
		sinks = append(sinks, s.sqlite)
	}
	s.journal = sinks
	s.closers = append(s.closers, sinks)

	asset, err := market.Lookup(cfg.Simulation.Asset)
	if err != nil {
		return nil, err
	}
	interval, err := cfg.Simulation.ParseInterval()
	if err != nil {
		return nil, fmt.Errorf("tick interval: %w", err)
	}

	s.console = sink.NewConsole(out)
	runLog := log.WithRun(s.runID)

	s.engine, err = sim.New(sim.Options{
		Generator:    pricing.NewGenerator(asset, cfg.Generator(), pricing.NewSeeded(s.seed)),
		Tracker:      account.NewTracker(cfg.AccountTracker()),
		Policy:       cfg.Policy(),
		Journal:      s.journal,
		History:      past,
		Renderer:     sink.NewLogRenderer(runLog),
		Feedback:     sink.Feedbacks{s.console, sink.NewLogFeedback(runLog)},
		Driver:       drv,
		Log:          log.Entry(),
		RunID:        s.runID,
		WarmupBars:   cfg.Simulation.WarmupBars,
		ATRPeriod:    cfg.Simulation.ATRPeriod,
		SMAPeriod:    cfg.Simulation.SMAPeriod,
		WindowMargin: cfg.Simulation.WindowMargin,
		TickInterval: interval,
	})
	if err != nil {
		return nil, err
	}

	runLog.WithFields(logrus.Fields{
		"asset":    asset.Symbol,
		"seed":     s.seed,
		"strategy": cfg.Strategy.Name,
		"history":  len(past),
	}).Info("session opened")

	ok = true
	return s, nil
}

// Close releases the journals and the store in reverse order.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// applyPreferences copies the stored ticket preferences onto the config.
func applyPreferences(cfg *config.Config, p store.Preferences) {
	if p.Asset != "" {
		cfg.Simulation.Asset = p.Asset
	}
	if p.Timeframe != "" {
		cfg.Simulation.Timeframe = p.Timeframe
	}
	if p.Method != "" {
		cfg.Strategy.Method = strings.ToLower(p.Method)
	}
	if p.Stop > 0 {
		cfg.Strategy.Stop = p.Stop
	}
	if p.Target > 0 {
		cfg.Strategy.Target = p.Target
	}
	if p.Units > 0 {
		cfg.Strategy.Units = p.Units
	}
}
