package sync

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlinklfo/walletanalytics/internal/config"
	"github.com/shlinklfo/walletanalytics/internal/provider"
	"github.com/shlinklfo/walletanalytics/internal/statusbus"
	"github.com/shlinklfo/walletanalytics/internal/store"
	"github.com/shlinklfo/walletanalytics/internal/swapparser"
	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

type fakeStore struct {
	lastSig     string
	persisted   int32
	trades      []trademodel.Trade
	rollupCalls int32
}

func (f *fakeStore) LatestSignature(ctx context.Context, wallet string) (string, error) {
	return f.lastSig, nil
}

func (f *fakeStore) PersistSyncBatch(ctx context.Context, wallet, newLastSignature string, earliestBatchTime int64, rawTxs []trademodel.RawTransaction, trades []trademodel.Trade) error {
	atomic.AddInt32(&f.persisted, 1)
	f.lastSig = newLastSignature
	f.trades = append(f.trades, trades...)
	return nil
}

func (f *fakeStore) TradesByWallet(ctx context.Context, wallet string, sinceUnix int64) ([]trademodel.Trade, error) {
	return f.trades, nil
}

func (f *fakeStore) PersistFIFO(ctx context.Context, wallet string, positions map[string]trademodel.Position, lots map[string][]trademodel.CostBasisLot) error {
	return nil
}

func (f *fakeStore) UpsertWalletRollups(ctx context.Context, wallet string, r store.WalletRollups) error {
	atomic.AddInt32(&f.rollupCalls, 1)
	return nil
}

func (f *fakeStore) TokenLaunches(ctx context.Context) (map[string]store.TokenLaunch, error) {
	return map[string]store.TokenLaunch{}, nil
}

type fakeProvider struct {
	sigs     []provider.Signature
	enhanced []swapparser.EnhancedTransaction
}

func (p *fakeProvider) Signatures(ctx context.Context, address string, params provider.SignaturesParams) ([]provider.Signature, error) {
	return p.sigs, nil
}

func (p *fakeProvider) Enhance(ctx context.Context, signatures []string) ([]swapparser.EnhancedTransaction, error) {
	return p.enhanced, nil
}

func TestCoordinator_Sync_PersistsAndRollsUp(t *testing.T) {
	wallet := "WalletCoordxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	mint := "MintCoordxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

	fs := &fakeStore{}
	fp := &fakeProvider{
		sigs: []provider.Signature{{Signature: "sig1", Slot: 1, BlockTime: 1000}},
		enhanced: []swapparser.EnhancedTransaction{
			{
				Signature: "sig1",
				Timestamp: 1000,
				Source:    "Jupiter",
				TokenTransfers: []swapparser.TokenTransfer{
					{FromUserAccount: "other", ToUserAccount: wallet, Mint: mint, TokenAmount: decimal.NewFromInt(100)},
				},
				NativeTransfers: []swapparser.NativeTransfer{
					{FromUserAccount: wallet, ToUserAccount: "other", AmountLamports: 1_000_000_000},
				},
			},
		},
	}

	cfg := config.Default()
	cfg.RPCMinInterval = 0
	cfg.EnhancedTxMinInterval = 0

	coord := New(fs, fp, statusbus.New(4), cfg)
	err := coord.Sync(context.Background(), wallet, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fs.persisted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fs.rollupCalls))
	assert.Equal(t, "sig1", fs.lastSig)
	require.Len(t, fs.trades, 1)
}

func TestCoordinator_Sync_NoNewSignaturesIsNotAnError(t *testing.T) {
	wallet := "WalletEmptyxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	fs := &fakeStore{}
	fp := &fakeProvider{}

	cfg := config.Default()
	coord := New(fs, fp, nil, cfg)
	err := coord.Sync(context.Background(), wallet, false)
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fs.persisted))
}
