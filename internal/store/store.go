// Package store is the typed persistence adapter over the relational
// store: prepared operations for wallets, raw
// transactions, trades, positions, cost-basis lots, token metadata, and
// follow scores, plus additive/idempotent schema migrations. Bulk writes
// use a CopyFrom-into-staging pattern to keep raw transaction ingestion
// both fast and idempotent on signature.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/perr"
	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// Store wraps a pgx connection pool with the pipeline's typed operations.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New opens a pool against databaseURL and verifies connectivity.
func New(ctx context.Context, databaseURL string, logger zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, perr.Wrap(perr.StoreConflict, "", "unable to create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, perr.Wrap(perr.ProviderUnavailable, "", "unable to reach database", err)
	}
	logger.Info().Msg("database connection established")
	return &Store{pool: pool, log: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies additive, idempotent schema changes: tables and indexes
// are created only if absent. Columns of an existing table are not
// checked, added or altered.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return perr.Wrap(perr.StoreCorrupt, "", "migration failed", err)
		}
	}
	s.log.Info().Int("statements", len(migrationStatements)).Msg("migrations applied")
	return nil
}

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		address TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		emoji TEXT NOT NULL DEFAULT '',
		alerts_on BOOLEAN NOT NULL DEFAULT false,
		last_synced_at TIMESTAMPTZ,
		first_synced_at TIMESTAMPTZ,
		last_signature TEXT NOT NULL DEFAULT '',
		total_transactions BIGINT NOT NULL DEFAULT 0,
		total_realized_pnl NUMERIC NOT NULL DEFAULT 0,
		win_rate NUMERIC NOT NULL DEFAULT 0,
		total_sol_volume NUMERIC NOT NULL DEFAULT 0,
		total_trades BIGINT NOT NULL DEFAULT 0,
		quick_flip_rate NUMERIC NOT NULL DEFAULT 0,
		exited_token_rate NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (address, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		signature TEXT PRIMARY KEY,
		wallet TEXT NOT NULL,
		block_time BIGINT NOT NULL,
		slot BIGINT NOT NULL,
		payload BYTEA,
		parsed BOOLEAN NOT NULL DEFAULT false
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		wallet TEXT NOT NULL,
		signature TEXT NOT NULL,
		ts BIGINT NOT NULL,
		side TEXT NOT NULL,
		token_mint TEXT NOT NULL,
		token_amount NUMERIC NOT NULL,
		sol_amount NUMERIC NOT NULL,
		price_per_token NUMERIC NOT NULL,
		dex TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_wallet_ts ON trades (wallet, ts)`,
	`CREATE TABLE IF NOT EXISTS positions (
		wallet TEXT NOT NULL,
		token_mint TEXT NOT NULL,
		total_bought NUMERIC NOT NULL DEFAULT 0,
		total_sold NUMERIC NOT NULL DEFAULT 0,
		total_cost_basis NUMERIC NOT NULL DEFAULT 0,
		total_proceeds NUMERIC NOT NULL DEFAULT 0,
		remaining_tokens NUMERIC NOT NULL DEFAULT 0,
		average_buy_price NUMERIC NOT NULL DEFAULT 0,
		realized_pnl NUMERIC NOT NULL DEFAULT 0,
		trade_count INT NOT NULL DEFAULT 0,
		win_count INT NOT NULL DEFAULT 0,
		first_trade_at BIGINT NOT NULL DEFAULT 0,
		last_trade_at BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (wallet, token_mint)
	)`,
	`CREATE TABLE IF NOT EXISTS cost_basis_lots (
		wallet TEXT NOT NULL,
		token_mint TEXT NOT NULL,
		origin_trade_id TEXT NOT NULL,
		ts BIGINT NOT NULL,
		original_amount NUMERIC NOT NULL,
		remaining_amount NUMERIC NOT NULL,
		price NUMERIC NOT NULL,
		PRIMARY KEY (wallet, token_mint, origin_trade_id)
	)`,
	`CREATE TABLE IF NOT EXISTS token_metadata (
		mint TEXT PRIMARY KEY,
		symbol TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		decimals INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS token_launches (
		mint TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		block_time BIGINT NOT NULL,
		slot BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_follow_scores (
		wallet TEXT PRIMARY KEY,
		delay_seconds INT NOT NULL,
		slippage_model TEXT NOT NULL,
		actual_pnl NUMERIC NOT NULL,
		simulated_pnl NUMERIC NOT NULL,
		followability_ratio NUMERIC NOT NULL,
		quick_dump_rate NUMERIC NOT NULL,
		time_to_first_sell_p50 DOUBLE PRECISION NOT NULL,
		time_to_first_sell_p90 DOUBLE PRECISION NOT NULL,
		followable_token_count INT NOT NULL,
		unfollowable_token_count INT NOT NULL,
		avg_entry_size_sol NUMERIC NOT NULL
	)`,
}

// UpsertWallet inserts or updates a wallet's display metadata, leaving
// cursor/rollup fields untouched.
func (s *Store) UpsertWallet(ctx context.Context, w trademodel.Wallet) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallets (address, user_id, name, emoji, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (address, user_id) DO UPDATE SET name = $3, emoji = $4
	`, w.Address, w.Owner, w.Name, w.Icon)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, w.Address, "upsert wallet failed", err)
	}
	return nil
}

// WalletRollups is the cached aggregate written after a sync run (spec
// §4.7 step 5).
type WalletRollups struct {
	TotalRealizedPnL decimal.Decimal
	WinRate          decimal.Decimal
	TotalSOLVolume   decimal.Decimal
	TotalTrades      int64
	QuickFlipRate    decimal.Decimal
	ExitedTokenRate  decimal.Decimal
}

// UpsertWalletRollups writes the cached rollup fields for wallet.
func (s *Store) UpsertWalletRollups(ctx context.Context, wallet string, r WalletRollups) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE wallets SET
			total_realized_pnl = $2,
			win_rate = $3,
			total_sol_volume = $4,
			total_trades = $5,
			quick_flip_rate = $6,
			exited_token_rate = $7
		WHERE address = $1
	`, wallet, r.TotalRealizedPnL, r.WinRate, r.TotalSOLVolume, r.TotalTrades, r.QuickFlipRate, r.ExitedTokenRate)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, wallet, "upsert wallet rollups failed", err)
	}
	return nil
}

// AdvanceCursor sets the wallet's sync cursor fields after a run commits.
// firstSyncedAt is only set when previously null.
func (s *Store) AdvanceCursor(ctx context.Context, tx pgx.Tx, wallet, lastSignature string, earliestBatchTime int64, newIngested int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE wallets SET
			last_signature = $2,
			last_synced_at = now(),
			first_synced_at = COALESCE(first_synced_at, to_timestamp($3)),
			total_transactions = total_transactions + $4
		WHERE address = $1
	`, wallet, lastSignature, earliestBatchTime, newIngested)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, wallet, "advance cursor failed", err)
	}
	return nil
}

// LatestSignature returns the wallet's sync cursor, or "" if the wallet has
// never been synced.
func (s *Store) LatestSignature(ctx context.Context, wallet string) (string, error) {
	var sig string
	err := s.pool.QueryRow(ctx, `SELECT last_signature FROM wallets WHERE address = $1`, wallet).Scan(&sig)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", perr.Wrap(perr.StoreConflict, wallet, "read cursor failed", err)
	}
	return sig, nil
}

// InsertRawTransaction inserts one raw record, idempotent on signature.
func (s *Store) InsertRawTransaction(ctx context.Context, tx pgx.Tx, rt trademodel.RawTransaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (signature, wallet, block_time, slot, payload, parsed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (signature) DO NOTHING
	`, rt.Signature, rt.Wallet, rt.BlockTime, rt.Slot, rt.Payload, rt.Parsed)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, rt.Wallet, "insert raw transaction failed", err)
	}
	return nil
}

// InsertRawTransactionsBulk bulk-loads a signature page via CopyFrom into a
// temporary staging table, then merges it into transactions with the same
// idempotent ON CONFLICT behavior as InsertRawTransaction.
func (s *Store) InsertRawTransactionsBulk(ctx context.Context, tx pgx.Tx, batch []trademodel.RawTransaction) error {
	if len(batch) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE IF NOT EXISTS transactions_staging (
			signature TEXT, wallet TEXT, block_time BIGINT, slot BIGINT, payload BYTEA, parsed BOOLEAN
		) ON COMMIT DROP
	`); err != nil {
		return perr.Wrap(perr.StoreConflict, "", "create staging table failed", err)
	}

	rows := make([][]interface{}, len(batch))
	for i, rt := range batch {
		rows[i] = []interface{}{rt.Signature, rt.Wallet, rt.BlockTime, rt.Slot, rt.Payload, rt.Parsed}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"transactions_staging"},
		[]string{"signature", "wallet", "block_time", "slot", "payload", "parsed"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "copy into staging failed", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (signature, wallet, block_time, slot, payload, parsed)
		SELECT signature, wallet, block_time, slot, payload, parsed FROM transactions_staging
		ON CONFLICT (signature) DO NOTHING
	`)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "merge staging table failed", err)
	}
	return nil
}

// MarkParsed flips the parsed flag for a signature — the only mutable
// field on a stored raw transaction.
func (s *Store) MarkParsed(ctx context.Context, tx pgx.Tx, signature string) error {
	_, err := tx.Exec(ctx, `UPDATE transactions SET parsed = true WHERE signature = $1`, signature)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "mark parsed failed", err)
	}
	return nil
}

// UpsertTrade replaces a trade row keyed by its deterministic id.
func (s *Store) UpsertTrade(ctx context.Context, tx pgx.Tx, t trademodel.Trade) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO trades (id, wallet, signature, ts, side, token_mint, token_amount, sol_amount, price_per_token, dex)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			ts = $4, side = $5, token_amount = $7, sol_amount = $8, price_per_token = $9, dex = $10
	`, t.ID, t.Wallet, t.Signature, t.Timestamp, string(t.Side), t.TokenMint, t.TokenAmount, t.SOLAmount, t.PricePerToken, t.DEX)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, t.Wallet, "upsert trade failed", err)
	}
	return nil
}

// TradesByWallet returns a wallet's trades with timestamp ≥ sinceUnix,
// ordered ascending by timestamp.
func (s *Store) TradesByWallet(ctx context.Context, wallet string, sinceUnix int64) ([]trademodel.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, wallet, signature, ts, side, token_mint, token_amount, sol_amount, price_per_token, dex
		FROM trades WHERE wallet = $1 AND ts >= $2 ORDER BY ts ASC
	`, wallet, sinceUnix)
	if err != nil {
		return nil, perr.Wrap(perr.StoreConflict, wallet, "range scan trades failed", err)
	}
	defer rows.Close()

	var out []trademodel.Trade
	for rows.Next() {
		var t trademodel.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Wallet, &t.Signature, &t.Timestamp, &side, &t.TokenMint,
			&t.TokenAmount, &t.SOLAmount, &t.PricePerToken, &t.DEX); err != nil {
			return nil, perr.Wrap(perr.StoreCorrupt, wallet, "scan trade row failed", err)
		}
		t.Side = trademodel.Side(side)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(perr.StoreCorrupt, wallet, "iterate trade rows failed", err)
	}
	return out, nil
}

// DeletePositionsAndLots removes all positions and lots for a wallet,
// ahead of a full FIFO recompute.
func (s *Store) DeletePositionsAndLots(ctx context.Context, tx pgx.Tx, wallet string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cost_basis_lots WHERE wallet = $1`, wallet); err != nil {
		return perr.Wrap(perr.StoreConflict, wallet, "delete lots failed", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE wallet = $1`, wallet); err != nil {
		return perr.Wrap(perr.StoreConflict, wallet, "delete positions failed", err)
	}
	return nil
}

// UpsertPosition replaces a position row wholesale — positions are always
// recomputed in full, never patched field-by-field.
func (s *Store) UpsertPosition(ctx context.Context, tx pgx.Tx, p trademodel.Position) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO positions (wallet, token_mint, total_bought, total_sold, total_cost_basis,
			total_proceeds, remaining_tokens, average_buy_price, realized_pnl, trade_count,
			win_count, first_trade_at, last_trade_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (wallet, token_mint) DO UPDATE SET
			total_bought = $3, total_sold = $4, total_cost_basis = $5, total_proceeds = $6,
			remaining_tokens = $7, average_buy_price = $8, realized_pnl = $9, trade_count = $10,
			win_count = $11, first_trade_at = $12, last_trade_at = $13
	`, p.Wallet, p.TokenMint, p.TotalBought, p.TotalSold, p.TotalCostBasis, p.TotalProceeds,
		p.RemainingTokens, p.AverageBuyPrice, p.RealizedPnL, p.TradeCount, p.WinCount,
		p.FirstTradeAt, p.LastTradeAt)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, p.Wallet, "upsert position failed", err)
	}
	return nil
}

// InsertLot persists one open FIFO lot.
func (s *Store) InsertLot(ctx context.Context, tx pgx.Tx, l trademodel.CostBasisLot) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cost_basis_lots (wallet, token_mint, origin_trade_id, ts, original_amount, remaining_amount, price)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (wallet, token_mint, origin_trade_id) DO UPDATE SET
			remaining_amount = $6, price = $7
	`, l.Wallet, l.TokenMint, l.OriginTradeID, l.Timestamp, l.OriginalAmount, l.RemainingAmount, l.Price)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, l.Wallet, "insert lot failed", err)
	}
	return nil
}

// TokenMetadata is a cached display record for a mint.
type TokenMetadata struct {
	Mint     string
	Symbol   string
	Name     string
	Decimals int
}

// UpsertTokenMetadata writes the cache entry for a mint.
func (s *Store) UpsertTokenMetadata(ctx context.Context, m TokenMetadata) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_metadata (mint, symbol, name, decimals)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (mint) DO UPDATE SET symbol = $2, name = $3, decimals = $4
	`, m.Mint, m.Symbol, m.Name, m.Decimals)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "upsert token metadata failed", err)
	}
	return nil
}

// TokenMetadataByMint reads the cache entry for a mint, if present.
func (s *Store) TokenMetadataByMint(ctx context.Context, mint string) (TokenMetadata, bool, error) {
	var m TokenMetadata
	err := s.pool.QueryRow(ctx, `SELECT mint, symbol, name, decimals FROM token_metadata WHERE mint = $1`, mint).
		Scan(&m.Mint, &m.Symbol, &m.Name, &m.Decimals)
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenMetadata{}, false, nil
	}
	if err != nil {
		return TokenMetadata{}, false, perr.Wrap(perr.StoreConflict, "", "read token metadata failed", err)
	}
	return m, true, nil
}

// DeleteTokenMetadata removes a cache entry.
func (s *Store) DeleteTokenMetadata(ctx context.Context, mint string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM token_metadata WHERE mint = $1`, mint)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "delete token metadata failed", err)
	}
	return nil
}

// TokenLaunch is the earliest on-chain sighting of a mint.
type TokenLaunch struct {
	Mint      string
	Signature string
	BlockTime int64
	Slot      uint64
}

// UpsertTokenLaunch writes a mint's earliest-observed record, keeping
// whichever block_time is earlier if the mint already has one.
func (s *Store) UpsertTokenLaunch(ctx context.Context, l TokenLaunch) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_launches (mint, signature, block_time, slot)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (mint) DO UPDATE SET
			signature = CASE WHEN EXCLUDED.block_time < token_launches.block_time THEN EXCLUDED.signature ELSE token_launches.signature END,
			block_time = LEAST(token_launches.block_time, EXCLUDED.block_time),
			slot = CASE WHEN EXCLUDED.block_time < token_launches.block_time THEN EXCLUDED.slot ELSE token_launches.slot END
	`, l.Mint, l.Signature, l.BlockTime, l.Slot)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "upsert token launch failed", err)
	}
	return nil
}

// TokenLaunches loads the full launch table in one scan, so the profiler
// can look launches up per mint without a query per mint. The table is
// read afresh on every call; nothing is cached between calls.
func (s *Store) TokenLaunches(ctx context.Context) (map[string]TokenLaunch, error) {
	rows, err := s.pool.Query(ctx, `SELECT mint, signature, block_time, slot FROM token_launches`)
	if err != nil {
		return nil, perr.Wrap(perr.StoreConflict, "", "load token launches failed", err)
	}
	defer rows.Close()

	out := map[string]TokenLaunch{}
	for rows.Next() {
		var l TokenLaunch
		if err := rows.Scan(&l.Mint, &l.Signature, &l.BlockTime, &l.Slot); err != nil {
			return nil, perr.Wrap(perr.StoreCorrupt, "", "scan token launch row failed", err)
		}
		out[l.Mint] = l
	}
	return out, rows.Err()
}

// UpsertFollowScore replaces a wallet's follow-simulation output row.
func (s *Store) UpsertFollowScore(ctx context.Context, f trademodel.FollowScore) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_follow_scores (wallet, delay_seconds, slippage_model, actual_pnl, simulated_pnl,
			followability_ratio, quick_dump_rate, time_to_first_sell_p50, time_to_first_sell_p90,
			followable_token_count, unfollowable_token_count, avg_entry_size_sol)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (wallet) DO UPDATE SET
			delay_seconds = $2, slippage_model = $3, actual_pnl = $4, simulated_pnl = $5,
			followability_ratio = $6, quick_dump_rate = $7, time_to_first_sell_p50 = $8,
			time_to_first_sell_p90 = $9, followable_token_count = $10,
			unfollowable_token_count = $11, avg_entry_size_sol = $12
	`, f.Wallet, f.DelaySeconds, f.SlippageModel, f.ActualPnL, f.SimulatedPnL, f.FollowabilityRatio,
		f.QuickDumpRate, f.TimeToFirstSellP50, f.TimeToFirstSellP90, f.FollowableTokenCount,
		f.UnfollowableTokenCount, f.AvgEntrySizeSOL)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, f.Wallet, "upsert follow score failed", err)
	}
	return nil
}

// WithTx runs fn inside a single atomic transaction — either every write
// fn performs is visible after commit or none is.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return perr.Wrap(perr.StoreConflict, "", "begin transaction failed", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return perr.Wrap(perr.StoreConflict, "", "commit transaction failed", err)
	}
	return nil
}

// PersistSyncBatch performs step 4 of the sync run atomically:
// advance the wallet cursor, bulk-insert raw transactions, and upsert the
// trades parsed from them.
func (s *Store) PersistSyncBatch(ctx context.Context, wallet, newLastSignature string, earliestBatchTime int64, rawTxs []trademodel.RawTransaction, trades []trademodel.Trade) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.AdvanceCursor(ctx, tx, wallet, newLastSignature, earliestBatchTime, int64(len(rawTxs))); err != nil {
			return err
		}
		if err := s.InsertRawTransactionsBulk(ctx, tx, rawTxs); err != nil {
			return err
		}
		for _, t := range trades {
			if err := s.UpsertTrade(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// PersistFIFO writes a fresh FIFO recomputation atomically: clear old
// positions/lots, then persist the new set.
func (s *Store) PersistFIFO(ctx context.Context, wallet string, positions map[string]trademodel.Position, lots map[string][]trademodel.CostBasisLot) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.DeletePositionsAndLots(ctx, tx, wallet); err != nil {
			return err
		}
		for _, p := range positions {
			if err := s.UpsertPosition(ctx, tx, p); err != nil {
				return err
			}
		}
		for _, mintLots := range lots {
			for _, l := range mintLots {
				if err := s.InsertLot(ctx, tx, l); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
