// Package profiler derives behavioral aggregates — entry latency, hold
// duration, early-exit and round-trip rates, DEX breakdown — from a
// wallet's cached trades and a token-launch table.
package profiler

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// EarlyExitWindowSeconds is the fixed window used by early_exit_rate:
// within 600s of the first buy counts as an early exit.
const EarlyExitWindowSeconds = 600

// Launch is the earliest recorded sighting of a mint, as read from the
// store's token_launches table. The sync pipeline does not write that
// table; it holds only rows written through store.UpsertTokenLaunch.
type Launch struct {
	Signature string
	Timestamp int64
	Slot      uint64
}

// Profile is the full behavioral aggregate output for one wallet.
type Profile struct {
	Wallet              string
	TokensTracked       int
	TotalTrades         int
	TotalSOLVolume      decimal.Decimal
	DEXBreakdown        map[string]int
	EntryLatencyP50     float64
	EntryLatencyP90     float64
	EntryLatencySamples int
	HoldDurationP50     float64
	HoldDurationP90     float64
	HoldDurationSamples int
	EarlyExitRate       float64
	RoundTripRate       float64
}

type mintStats struct {
	firstTrade int64
	lastTrade  int64
	firstBuy   *int64
	firstSell  *int64
	hasBuy     bool
	hasSell    bool
}

// Build computes a Profile for wallet from its trade set and a mint→Launch
// lookup. Trades not belonging to wallet are ignored.
func Build(wallet string, trades []trademodel.Trade, launches map[string]Launch) Profile {
	p := Profile{
		Wallet:       wallet,
		DEXBreakdown: map[string]int{},
	}

	byMint := map[string]*mintStats{}
	for _, t := range trades {
		if t.Wallet != wallet {
			continue
		}
		p.TotalTrades++
		p.TotalSOLVolume = p.TotalSOLVolume.Add(t.SOLAmount)
		p.DEXBreakdown[t.DEX]++

		st, ok := byMint[t.TokenMint]
		if !ok {
			st = &mintStats{firstTrade: t.Timestamp, lastTrade: t.Timestamp}
			byMint[t.TokenMint] = st
		}
		if t.Timestamp < st.firstTrade {
			st.firstTrade = t.Timestamp
		}
		if t.Timestamp > st.lastTrade {
			st.lastTrade = t.Timestamp
		}
		ts := t.Timestamp
		switch t.Side {
		case trademodel.SideBuy:
			st.hasBuy = true
			if st.firstBuy == nil || ts < *st.firstBuy {
				st.firstBuy = &ts
			}
		case trademodel.SideSell:
			st.hasSell = true
			if st.firstSell == nil || ts < *st.firstSell {
				st.firstSell = &ts
			}
		}
	}

	p.TokensTracked = len(byMint)

	var entryLatencies []float64
	var holdDurations []float64
	roundTrips := 0
	sellMints := 0
	earlyExits := 0

	for mint, st := range byMint {
		if st.hasBuy && st.hasSell {
			roundTrips++
			holdDurations = append(holdDurations, float64(st.lastTrade-st.firstTrade))
		}
		if st.hasSell {
			sellMints++
			if st.hasBuy && *st.firstSell-*st.firstBuy < EarlyExitWindowSeconds {
				earlyExits++
			}
		}
		if launch, ok := launches[mint]; ok && st.firstBuy != nil && launch.Timestamp <= *st.firstBuy {
			entryLatencies = append(entryLatencies, float64(*st.firstBuy-launch.Timestamp))
		}
	}

	p.EntryLatencyP50, p.EntryLatencyP90, p.EntryLatencySamples = percentilePair(entryLatencies)
	p.HoldDurationP50, p.HoldDurationP90, p.HoldDurationSamples = percentilePair(holdDurations)

	if sellMints > 0 {
		p.EarlyExitRate = float64(earlyExits) / float64(sellMints)
	}
	if p.TokensTracked > 0 {
		p.RoundTripRate = float64(roundTrips) / float64(p.TokensTracked)
	}

	return p
}

// Percentile returns the pth percentile of values using the fixed
// definition: index = min(N-1, ceil(p/100*N) - 1).
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func percentilePair(values []float64) (p50, p90 float64, samples int) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	return Percentile(values, 50), Percentile(values, 90), len(values)
}
