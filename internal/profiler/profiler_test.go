package profiler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

const wallet = "ProfiledWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestBuild_RoundTripAndEarlyExit(t *testing.T) {
	mintA := "MintAxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	mintB := "MintBxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

	trades := []trademodel.Trade{
		trademodel.NewTrade(wallet, "sigA1", 1000, trademodel.SideBuy, mintA, dec("100"), dec("1"), "Jupiter"),
		trademodel.NewTrade(wallet, "sigA2", 1020, trademodel.SideSell, mintA, dec("100"), dec("1.2"), "Jupiter"),
		trademodel.NewTrade(wallet, "sigB1", 2000, trademodel.SideBuy, mintB, dec("50"), dec("1"), "Raydium"),
	}

	launches := map[string]Launch{
		mintA: {Signature: "launchA", Timestamp: 900},
	}

	p := Build(wallet, trades, launches)

	assert.Equal(t, 2, p.TokensTracked)
	assert.Equal(t, 3, p.TotalTrades)
	assert.Equal(t, 0.5, p.RoundTripRate) // 1 of 2 mints round-tripped
	assert.Equal(t, 1.0, p.EarlyExitRate) // the only sell-having mint exited within 600s
	assert.Equal(t, 1, p.EntryLatencySamples)
	assert.Equal(t, 100.0, p.EntryLatencyP50) // 1000 - 900
	assert.Equal(t, 2, p.DEXBreakdown["Jupiter"])
	assert.Equal(t, 1, p.DEXBreakdown["Raydium"])
}

func TestPercentile_MatchesFixedDefinition(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	// N=4, p=50: ceil(0.5*4)-1 = 1 -> sorted[1] = 20
	assert.Equal(t, 20.0, Percentile(values, 50))
	// p=90: ceil(0.9*4)-1 = ceil(3.6)-1 = 4-1 = 3 -> sorted[3] = 40
	assert.Equal(t, 40.0, Percentile(values, 90))
}

func TestBuild_NoTradesYieldsZeroProfile(t *testing.T) {
	p := Build(wallet, nil, nil)
	assert.Equal(t, 0, p.TokensTracked)
	assert.Equal(t, 0.0, p.RoundTripRate)
	assert.Equal(t, 0.0, p.EarlyExitRate)
}
