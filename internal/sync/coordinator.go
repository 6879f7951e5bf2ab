// Package sync drives incremental wallet ingestion: paging signatures and
// enhanced transactions from the external provider, parsing them into
// trades, persisting atomically, then refreshing FIFO state and the
// behavioral profile. At most one sync run is in flight per wallet at a
// time, tracked without a global mutex.
package sync

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/config"
	"github.com/shlinklfo/walletanalytics/internal/fifo"
	"github.com/shlinklfo/walletanalytics/internal/perr"
	"github.com/shlinklfo/walletanalytics/internal/profiler"
	"github.com/shlinklfo/walletanalytics/internal/provider"
	"github.com/shlinklfo/walletanalytics/internal/statusbus"
	"github.com/shlinklfo/walletanalytics/internal/store"
	"github.com/shlinklfo/walletanalytics/internal/swapparser"
	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// State is a stage of the per-wallet sync state machine.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateParsing    State = "parsing"
	StatePersisting State = "persisting"
	StateRollingUp  State = "rolling_up"
)

// Store is the subset of *store.Store the coordinator depends on, named so
// tests can substitute a fake.
type Store interface {
	LatestSignature(ctx context.Context, wallet string) (string, error)
	PersistSyncBatch(ctx context.Context, wallet, newLastSignature string, earliestBatchTime int64, rawTxs []trademodel.RawTransaction, trades []trademodel.Trade) error
	TradesByWallet(ctx context.Context, wallet string, sinceUnix int64) ([]trademodel.Trade, error)
	PersistFIFO(ctx context.Context, wallet string, positions map[string]trademodel.Position, lots map[string][]trademodel.CostBasisLot) error
	UpsertWalletRollups(ctx context.Context, wallet string, r store.WalletRollups) error
	TokenLaunches(ctx context.Context) (map[string]store.TokenLaunch, error)
}

// run is the shared handle for one in-flight or completed sync. id
// identifies the run in status events and logs, letting an operator
// correlate a forced re-sync with the run it superseded.
type run struct {
	id   string
	done chan struct{}
	err  error
}

// Coordinator implements the per-wallet sync state machine.
type Coordinator struct {
	store  Store
	client provider.Client
	bus    *statusbus.Bus
	cfg    config.Config

	mu      sync.Mutex
	running map[string]*run

	rpcLimiter     *rateLimiter
	enhanceLimiter *rateLimiter
}

// New builds a Coordinator.
func New(st Store, client provider.Client, bus *statusbus.Bus, cfg config.Config) *Coordinator {
	return &Coordinator{
		store:          st,
		client:         client,
		bus:            bus,
		cfg:            cfg,
		running:        map[string]*run{},
		rpcLimiter:     newRateLimiter(cfg.RPCMinInterval),
		enhanceLimiter: newRateLimiter(cfg.EnhancedTxMinInterval),
	}
}

// Sync runs (or attaches to) a sync for wallet. If a run is already
// in-flight and forceRefresh is false, the caller waits on the existing
// run's result. If forceRefresh is true, a new run is scheduled to start
// immediately after the current one finishes.
func (c *Coordinator) Sync(ctx context.Context, wallet string, forceRefresh bool) error {
	c.mu.Lock()
	existing, inFlight := c.running[wallet]
	if inFlight && !forceRefresh {
		c.mu.Unlock()
		return c.await(ctx, existing)
	}

	r := &run{id: uuid.NewString(), done: make(chan struct{})}
	c.running[wallet] = r
	c.mu.Unlock()

	if inFlight {
		// Sequence after the current run completes (best-effort: a forced
		// refresh still waits for the in-flight run's store writes to
		// settle before starting its own).
		<-existing.done
	}

	go c.execute(wallet, forceRefresh, r)
	return c.await(ctx, r)
}

func (c *Coordinator) await(ctx context.Context, r *run) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return perr.Wrap(perr.Cancelled, "", "sync cancelled", ctx.Err())
	}
}

func (c *Coordinator) execute(wallet string, forceRefresh bool, r *run) {
	ctx := context.Background()
	err := c.runOnce(ctx, wallet, forceRefresh, r.id)
	r.err = err

	c.mu.Lock()
	if c.running[wallet] == r {
		delete(c.running, wallet)
	}
	c.mu.Unlock()

	close(r.done)
}

func (c *Coordinator) emit(ev statusbus.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

// runOnce executes one full sync run for wallet.
// runID correlates this run's status events across a forced re-sync.
func (c *Coordinator) runOnce(ctx context.Context, wallet string, forceRefresh bool, runID string) error {
	c.emit(statusbus.Event{Level: statusbus.LevelInfo, Wallet: wallet, Message: "sync started (run " + runID + ")"})

	cursor := ""
	if !forceRefresh {
		sig, err := c.store.LatestSignature(ctx, wallet)
		if err != nil {
			c.emit(statusbus.Event{Level: statusbus.LevelError, Wallet: wallet, Message: err.Error()})
			return err
		}
		cursor = sig
	}

	sigs, err := c.fetchSignatures(ctx, wallet, cursor)
	if err != nil {
		c.emit(statusbus.Event{Level: statusbus.LevelError, Wallet: wallet, Message: err.Error()})
		return err
	}
	if len(sigs) == 0 {
		c.emit(statusbus.Event{Level: statusbus.LevelSuccess, Wallet: wallet, Message: "no new signatures"})
		return nil
	}

	c.emit(statusbus.Event{Level: statusbus.LevelProgress, Wallet: wallet, Current: 0, Total: len(sigs), Message: "fetching enhanced transactions"})
	enhanced, err := c.fetchEnhanced(ctx, wallet, sigs)
	if err != nil {
		c.emit(statusbus.Event{Level: statusbus.LevelError, Wallet: wallet, Message: err.Error()})
		return err
	}

	rawTxs, trades := c.parseAll(wallet, sigs, enhanced)

	newest := sigs[0].Signature
	var earliest int64
	for i, s := range sigs {
		if i == 0 || s.BlockTime < earliest {
			earliest = s.BlockTime
		}
	}

	if err := c.store.PersistSyncBatch(ctx, wallet, newest, earliest, rawTxs, trades); err != nil {
		c.emit(statusbus.Event{Level: statusbus.LevelError, Wallet: wallet, Message: err.Error()})
		return err
	}

	if err := c.rollUp(ctx, wallet); err != nil {
		c.emit(statusbus.Event{Level: statusbus.LevelWarning, Wallet: wallet, Message: "rollup failed: " + err.Error()})
		return err
	}

	c.emit(statusbus.Event{Level: statusbus.LevelSuccess, Wallet: wallet, Message: "sync complete", Current: len(sigs), Total: len(sigs), Percentage: 100})
	return nil
}

// fetchSignatures pages signatures until an empty/short batch, the stored
// cursor, or the safety cap of MaxNewSignatures is reached.
func (c *Coordinator) fetchSignatures(ctx context.Context, wallet, cursor string) ([]provider.Signature, error) {
	var all []provider.Signature
	before := ""
	pageSize := c.cfg.SignaturePageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	for {
		c.rpcLimiter.wait(ctx)
		page, err := c.client.Signatures(ctx, wallet, provider.SignaturesParams{Before: before, Until: cursor, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
		if max := c.cfg.MaxNewSignatures; max > 0 && len(all) >= max {
			all = all[:max]
			break
		}
		before = page[len(page)-1].Signature
		if before == cursor {
			break
		}
	}
	return all, nil
}

// fetchEnhanced batches signatures in groups of EnhanceBatchSize (spec
// §4.7 step 3).
func (c *Coordinator) fetchEnhanced(ctx context.Context, wallet string, sigs []provider.Signature) ([]swapparser.EnhancedTransaction, error) {
	batchSize := c.cfg.EnhanceBatchSize
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}

	var out []swapparser.EnhancedTransaction
	for i := 0; i < len(sigs); i += batchSize {
		end := i + batchSize
		if end > len(sigs) {
			end = len(sigs)
		}
		batch := make([]string, 0, end-i)
		for _, s := range sigs[i:end] {
			batch = append(batch, s.Signature)
		}

		c.enhanceLimiter.wait(ctx)
		txs, err := c.client.Enhance(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, txs...)
	}
	return out, nil
}

// parseAll converts fetched signatures/enhanced records into raw
// transactions and canonical trades. A transaction yielding no trades is
// simply skipped rather than treated as a batch-aborting error.
func (c *Coordinator) parseAll(wallet string, sigs []provider.Signature, enhanced []swapparser.EnhancedTransaction) ([]trademodel.RawTransaction, []trademodel.Trade) {
	bySig := map[string]provider.Signature{}
	for _, s := range sigs {
		bySig[s.Signature] = s
	}

	rawTxs := make([]trademodel.RawTransaction, 0, len(enhanced))
	var trades []trademodel.Trade

	for _, tx := range enhanced {
		meta, ok := bySig[tx.Signature]
		if !ok {
			continue
		}
		rawTxs = append(rawTxs, trademodel.RawTransaction{
			Signature: tx.Signature,
			Wallet:    wallet,
			BlockTime: meta.BlockTime,
			Slot:      meta.Slot,
			Parsed:    true,
		})

		parsed := swapparser.ParseWithOptions(tx, wallet, swapparser.Options{StablecoinToSOLDivisor: c.cfg.StablecoinToSOLDivisor})
		trades = append(trades, parsed...)
	}

	return rawTxs, trades
}

// rollUp runs the FIFO engine and profiler over the wallet's full trade
// set and writes the refreshed cached rollups.
func (c *Coordinator) rollUp(ctx context.Context, wallet string) error {
	trades, err := c.store.TradesByWallet(ctx, wallet, 0)
	if err != nil {
		return err
	}

	result := fifo.RecomputeWallet(wallet, trades)
	if err := c.store.PersistFIFO(ctx, wallet, result.Positions, result.Lots); err != nil {
		return err
	}

	launchTable, err := c.store.TokenLaunches(ctx)
	if err != nil {
		return err
	}
	launches := make(map[string]profiler.Launch, len(launchTable))
	for mint, l := range launchTable {
		launches[mint] = profiler.Launch{Signature: l.Signature, Timestamp: l.BlockTime, Slot: l.Slot}
	}
	profile := profiler.Build(wallet, trades, launches)

	rollups := computeRollups(result, profile)
	return c.store.UpsertWalletRollups(ctx, wallet, rollups)
}

// computeRollups derives the cached wallet summary fields from a FIFO
// result and behavioral profile.
func computeRollups(result fifo.Result, profile profiler.Profile) store.WalletRollups {
	totalPnL := decimal.Zero
	totalTrades := 0
	winCount := 0
	exitedTokens := 0
	quickFlips := 0

	mints := make([]string, 0, len(result.Positions))
	for mint := range result.Positions {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	for _, mint := range mints {
		pos := result.Positions[mint]
		totalPnL = totalPnL.Add(pos.RealizedPnL)
		totalTrades += pos.TradeCount
		winCount += pos.WinCount
		if pos.TotalSold.Sign() > 0 {
			exitedTokens++
		}
	}

	winRate := decimal.Zero
	sellCount := 0
	for _, pos := range result.Positions {
		if pos.TotalSold.Sign() > 0 {
			sellCount++
		}
	}
	if sellCount > 0 {
		winRate = decimal.NewFromInt(int64(winCount)).Div(decimal.NewFromInt(int64(sellCount)))
	}

	exitedRate := decimal.Zero
	if len(result.Positions) > 0 {
		exitedRate = decimal.NewFromInt(int64(exitedTokens)).Div(decimal.NewFromInt(int64(len(result.Positions))))
		quickFlips = int(float64(len(result.Positions)) * profile.EarlyExitRate)
	}

	quickFlipRate := decimal.Zero
	if len(result.Positions) > 0 {
		quickFlipRate = decimal.NewFromInt(int64(quickFlips)).Div(decimal.NewFromInt(int64(len(result.Positions))))
	}

	return store.WalletRollups{
		TotalRealizedPnL: totalPnL,
		WinRate:          winRate,
		TotalSOLVolume:   profile.TotalSOLVolume,
		TotalTrades:      int64(totalTrades),
		QuickFlipRate:    quickFlipRate,
		ExitedTokenRate:  exitedRate,
	}
}

// rateLimiter enforces a minimum interval between successive calls (spec
// §4.7 backpressure floors).
type rateLimiter struct {
	minInterval time.Duration
	mu          sync.Mutex
	last        time.Time
}

func newRateLimiter(minInterval time.Duration) *rateLimiter {
	return &rateLimiter{minInterval: minInterval}
}

func (r *rateLimiter) wait(ctx context.Context) {
	if r.minInterval <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.last)
	if elapsed < r.minInterval {
		select {
		case <-time.After(r.minInterval - elapsed):
		case <-ctx.Done():
		}
	}
	r.last = time.Now()
}
