package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketLens/internal/analyzer"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
)

// Pipeline is the part of the analyzer the scheduler drives.
type Pipeline interface {
	AnalyzeBatch(ctx context.Context, symbols []string) []analyzer.BatchResult
	Analyze(ctx context.Context, symbol string) (*analyzer.Analysis, error)
	Ask(ctx context.Context, symbol, question string) (notifier.Mode, string, error)
}

// Broadcaster receives every refreshed snapshot.
type Broadcaster interface {
	Broadcast(snap *model.Snapshot)
}

// Scheduler refreshes the watchlist on a cron schedule, records history,
// pushes live updates and sends alerts when signals change.
type Scheduler struct {
	Cron      *cron.Cron
	Pipeline  Pipeline
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Hub       Broadcaster
	Watchlist []string
	Ctx       context.Context

	log     zerolog.Logger
	running sync.Mutex

	mu      sync.RWMutex
	signals map[string]model.RegimeSignals
	latest  map[string]*model.Snapshot
	now     func() time.Time
}

// NewScheduler creates a new Scheduler. hub may be nil.
func NewScheduler(ctx context.Context, p Pipeline, n notifier.Notifier, rec recorder.Recorder, hub Broadcaster, watchlist []string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Pipeline:  p,
		Notifier:  n,
		Recorder:  rec,
		Hub:       hub,
		Watchlist: watchlist,
		Ctx:       ctx,
		log:       log,
		signals:   make(map[string]model.RegimeSignals),
		latest:    make(map[string]*model.Snapshot),
		now:       time.Now,
	}
}

// Register adds the watchlist refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.Refresh); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("symbols", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Refresh analyzes the watchlist once. A refresh that starts while another
// is still running is skipped.
func (s *Scheduler) Refresh() {
	if !s.running.TryLock() {
		s.log.Warn().Msg("refresh still running, skipping")
		return
	}
	defer s.running.Unlock()

	results := s.Pipeline.AnalyzeBatch(s.Ctx, s.Watchlist)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		s.handle(r.Analysis.Snapshot)
	}
}

func (s *Scheduler) handle(snap *model.Snapshot) {
	s.mu.Lock()
	var prev *model.RegimeSignals
	if p, ok := s.signals[snap.Symbol]; ok {
		prev = &p
	}
	s.signals[snap.Symbol] = snap.Signals
	s.latest[snap.Symbol] = snap
	s.mu.Unlock()

	if err := s.Recorder.RecordSnapshot(s.Ctx, snap); err != nil {
		s.log.Error().Err(err).Str("symbol", snap.Symbol).Msg("record snapshot")
	}
	if s.Hub != nil {
		s.Hub.Broadcast(snap)
	}

	events := notifier.NewEvents(prev, snap.Signals)
	if len(events) == 0 {
		return
	}
	sendErr := s.Notifier.Send(s.Ctx, notifier.FormatAlert(snap.Symbol, events, snap))
	if sendErr != nil {
		s.log.Error().Err(sendErr).Str("symbol", snap.Symbol).Msg("send alert")
	}
	if err := s.Recorder.RecordAlert(s.Ctx, &recorder.AlertEvent{
		Symbol: snap.Symbol, Timestamp: snap.GeneratedAt, Events: events, Delivered: sendErr == nil,
	}); err != nil {
		s.log.Error().Err(err).Str("symbol", snap.Symbol).Msg("record alert")
	}
}

// Latest returns the most recent refreshed snapshot for symbol.
func (s *Scheduler) Latest(symbol string) (*model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.latest[model.CanonicalSymbol(symbol)]
	return snap, ok
}

// Board renders the latest snapshot of every watchlist symbol.
func (s *Scheduler) Board() string {
	s.mu.RLock()
	snaps := make([]*model.Snapshot, 0, len(s.Watchlist))
	for _, sym := range s.Watchlist {
		if snap, ok := s.latest[model.CanonicalSymbol(sym)]; ok {
			snaps = append(snaps, snap)
		}
	}
	s.mu.RUnlock()
	return notifier.FormatBoard(snaps, s.now())
}

const helpText = "Commands:\n" +
	"• /board: latest reading for the watchlist\n" +
	"• /ask SYMBOL question: e.g. /ask BTC where is support?\n" +
	"• /SYMBOL: full snapshot, e.g. /eth\n" +
	"• SYMBOL question: e.g. SOL volume?"

// HandleCommand processes a chat message and returns an HTML reply.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	head := strings.ToLower(fields[0])
	if i := strings.IndexByte(head, '@'); i > 0 {
		head = head[:i] // "/board@MarketLensBot" in group chats
	}

	switch head {
	case "/start", "/help":
		return helpText
	case "/board":
		return s.Board()
	case "/ask":
		if len(fields) < 2 {
			return "usage: /ask SYMBOL question"
		}
		return s.ask(ctx, fields[1], strings.Join(fields[2:], " "))
	}

	if sym, ok := strings.CutPrefix(head, "/"); ok {
		if !model.IsTicker(sym) {
			return helpText
		}
		res, err := s.Pipeline.Analyze(ctx, sym)
		if err != nil {
			return s.failure(sym, err)
		}
		return notifier.FormatSnapshotMessage(res.Snapshot.Symbol, res.Snapshot)
	}
	if !model.IsTicker(fields[0]) {
		return helpText
	}
	return s.ask(ctx, fields[0], strings.Join(fields[1:], " "))
}

func (s *Scheduler) ask(ctx context.Context, symbol, question string) string {
	mode, reply, err := s.Pipeline.Ask(ctx, symbol, question)
	if err != nil {
		return s.failure(symbol, err)
	}
	s.log.Debug().Str("symbol", symbol).Str("mode", string(mode)).Msg("answered question")
	return html.EscapeString(reply)
}

func (s *Scheduler) failure(symbol string, err error) string {
	symbol = html.EscapeString(model.CanonicalSymbol(symbol))
	if model.IsNotEnoughData(err) {
		return fmt.Sprintf("%s: %s", symbol, model.NotEnoughDataMsg)
	}
	s.log.Error().Err(err).Str("symbol", symbol).Msg("chat analysis failed")
	return fmt.Sprintf("%s: could not fetch data right now, try again later", symbol)
}
