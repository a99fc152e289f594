// Package dashboard holds the dashboard state: it loads transactions and
// categories from a source and exposes the aggregated view.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/sources"
)

// Snapshot is an immutable copy of the dashboard state.
type Snapshot struct {
	Loading    bool
	Monthly    []core.MonthTotal
	Categories []core.CategoryAmount
	Recent     []core.RecentTransaction
	// Metrics are computed over Recent.
	Metrics core.Metrics
	// Overall carries the same figures over every fetched transaction.
	Overall    core.Metrics
	LastLoaded time.Time
}

type Options struct {
	RecentLimit     int
	DefaultCategory string
	Logger          *applog.Logger
}

type Store struct {
	transactions sources.TransactionReader
	categories   sources.CategoryReader
	recentLimit  int
	fallback     string
	logger       *applog.Logger
	now          func() time.Time

	mu        sync.Mutex
	state     Snapshot
	inFlight  int
	settled   bool
	started   uint64
	committed uint64
	subs      map[uint64]chan Snapshot
	nextSub   uint64
}

func NewStore(txs sources.TransactionReader, cats sources.CategoryReader, opts Options) *Store {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = core.DefaultRecentLimit
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = core.DefaultCategoryLabel
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	return &Store{
		transactions: txs,
		categories:   cats,
		recentLimit:  opts.RecentLimit,
		fallback:     opts.DefaultCategory,
		logger:       opts.Logger.WithComponent(applog.ComponentDashboard),
		now:          time.Now,
		subs:         make(map[uint64]chan Snapshot),
	}
}

type loadResult struct {
	monthly    []core.MonthTotal
	categories []core.CategoryAmount
	recent     []core.RecentTransaction
	metrics    core.Metrics
	overall    core.Metrics
}

// Load fetches both lists and replaces the aggregated state. Failures are
// logged and leave the previous state in place. When loads overlap, the most
// recently started successful one wins.
func (s *Store) Load(ctx context.Context) {
	seq := s.begin()
	start := s.now()

	var (
		txs  []core.Transaction
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.transactions.ListTransactions(gctx); err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if cats, err = s.categories.ListCategories(gctx); err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		applog.LogError(ctx, s.logger, "Dashboard load failed", err, applog.ErrorTypeNetwork, applog.OpLoad,
			applog.LogFields{applog.FieldLoadSeq: seq})
		s.finish(seq, nil)
		return
	}

	res := s.aggregate(txs, cats)
	if s.finish(seq, res) {
		s.logger.InfoContext(ctx, "Dashboard loaded",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithLoad(seq, len(txs), len(cats), len(res.monthly)).
				ToSlice()...)
		s.logger.DebugContext(ctx, "Dashboard load timing", applog.FieldDuration, s.now().Sub(start).Milliseconds())
	}
}

func (s *Store) aggregate(txs []core.Transaction, cats []core.Category) *loadResult {
	names := core.CategoryNames(cats)
	recent := core.RecentTransactions(txs, names, s.fallback, s.recentLimit)
	return &loadResult{
		monthly:    core.MonthlySeries(txs),
		categories: core.CategorySpending(txs, names, s.fallback),
		recent:     recent,
		metrics:    core.ComputeMetrics(core.RecentAmounts(recent)),
		overall:    core.ComputeMetrics(core.SignedAmounts(txs)),
	}
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	s.inFlight++
	s.state.Loading = true
	s.publishLocked()
	return s.started
}

// finish ends load seq, committing res unless a newer load already has.
// It reports whether res was committed.
func (s *Store) finish(seq uint64, res *loadResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	s.settled = true

	committed := false
	if res != nil {
		if seq > s.committed {
			s.committed = seq
			s.state.Monthly = res.monthly
			s.state.Categories = res.categories
			s.state.Recent = res.recent
			s.state.Metrics = res.metrics
			s.state.Overall = res.overall
			s.state.LastLoaded = s.now()
			committed = true
		} else {
			s.logger.Debug("Discarding stale dashboard load", applog.FieldLoadSeq, seq, "committed_seq", s.committed)
		}
	}
	s.state.Loading = s.inFlight > 0
	s.publishLocked()
	return committed
}

// Loading is true while a load is in flight and before the first load settles.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingLocked()
}

// Ready reports whether at least one load has settled.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

func (s *Store) loadingLocked() bool {
	return s.inFlight > 0 || !s.settled
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.state
	snap.Loading = s.loadingLocked()
	snap.Monthly = append([]core.MonthTotal(nil), s.state.Monthly...)
	snap.Categories = append([]core.CategoryAmount(nil), s.state.Categories...)
	snap.Recent = append([]core.RecentTransaction(nil), s.state.Recent...)
	return snap
}

// Subscribe returns a channel receiving the latest snapshot after every
// state change. Slow readers only see the newest snapshot. Call cancel to
// stop receiving; the channel is closed.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		// Drop the stale value so the send never blocks.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
