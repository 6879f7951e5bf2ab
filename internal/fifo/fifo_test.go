package fifo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

const wallet = "WalletUnderTestxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
const mint = "TokenMintxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecomputeWallet_DirectBuySell(t *testing.T) {
	trades := []trademodel.Trade{
		trademodel.NewTrade(wallet, "sig1", 0, trademodel.SideBuy, mint, dec("1000"), dec("1.0"), "Jupiter"),
		trademodel.NewTrade(wallet, "sig2", 100, trademodel.SideSell, mint, dec("1000"), dec("1.5"), "Jupiter"),
	}

	result := RecomputeWallet(wallet, trades)
	pos := result.Positions[mint]

	assert.True(t, pos.RealizedPnL.Equal(dec("0.5")), "pnl: %s", pos.RealizedPnL)
	assert.Equal(t, 1, pos.WinCount)
	assert.True(t, pos.RemainingTokens.IsZero())
	assert.Empty(t, result.Lots[mint])
}

func TestRecomputeWallet_PartialFIFOMatch(t *testing.T) {
	trades := []trademodel.Trade{
		trademodel.NewTrade(wallet, "sig1", 0, trademodel.SideBuy, mint, dec("500"), dec("1.0"), "Jupiter"),
		trademodel.NewTrade(wallet, "sig2", 10, trademodel.SideBuy, mint, dec("500"), dec("2.0"), "Jupiter"),
		trademodel.NewTrade(wallet, "sig3", 20, trademodel.SideSell, mint, dec("600"), dec("3.0"), "Jupiter"),
	}

	result := RecomputeWallet(wallet, trades)
	pos := result.Positions[mint]

	// matched cost = 500*0.002 + 100*0.004 = 1.4; pnl = 3.0 - 1.4 = 1.6
	assert.True(t, pos.RealizedPnL.Equal(dec("1.6")), "pnl: %s", pos.RealizedPnL)

	require.Len(t, result.Lots[mint], 1)
	lot := result.Lots[mint][0]
	assert.True(t, lot.RemainingAmount.Equal(dec("400")), "remaining: %s", lot.RemainingAmount)
	assert.True(t, lot.Price.Equal(dec("0.004")), "price: %s", lot.Price)
}

func TestRecomputeWallet_UnmatchedSellIsZeroCost(t *testing.T) {
	trades := []trademodel.Trade{
		trademodel.NewTrade(wallet, "sig1", 0, trademodel.SideSell, mint, dec("100"), dec("0.5"), "Jupiter"),
	}
	result := RecomputeWallet(wallet, trades)
	pos := result.Positions[mint]
	assert.True(t, pos.RealizedPnL.Equal(dec("0.5")))
	assert.Equal(t, 1, pos.WinCount)
}

func TestSummarize_LifetimeAverageBuyPriceUsedInWindow(t *testing.T) {
	trades := []trademodel.Trade{
		trademodel.NewTrade(wallet, "sig1", 0, trademodel.SideBuy, mint, dec("1"), dec("1"), "Jupiter"),
		trademodel.NewTrade(wallet, "sig2", 1_000_000, trademodel.SideSell, mint, dec("1"), dec("2"), "Jupiter"),
	}

	now := int64(1_000_100)
	s := Summarize(wallet, trades, Timeframe24h, now)

	// buy at t=0 is far outside the 24h window; sell at t=1_000_000 is
	// inside it. Lifetime avg buy price = 1.0, so period pnl = 2 - 1*1 = 1.
	assert.True(t, s.RealizedPnL.Equal(dec("1")), "pnl: %s", s.RealizedPnL)
	assert.Equal(t, 1, s.WinCount)
}
