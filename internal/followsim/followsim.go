// Package followsim replays a wallet's trades as a hypothetical
// copy-trader would have seen them — with fixed delay, size-bucketed
// slippage, and a followability weight derived from how fast the wallet
// exited each position.
package followsim

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// SlippageModel names one of the three fixed slippage tables.
type SlippageModel string

const (
	ModelConservative SlippageModel = "conservative"
	ModelModerate     SlippageModel = "moderate"
	ModelAggressive   SlippageModel = "aggressive"
)

// Trade-size bucket thresholds, in SOL.
var (
	smallThreshold  = decimal.NewFromFloat(0.5)
	mediumThreshold = decimal.NewFromFloat(2.0)
)

type bucket int

const (
	bucketSmall bucket = iota
	bucketMedium
	bucketLarge
)

var slippageTable = map[SlippageModel][3]float64{
	ModelConservative: {0.01, 0.02, 0.05},
	ModelModerate:      {0.02, 0.05, 0.10},
	ModelAggressive:    {0.03, 0.08, 0.15},
}

func sizeBucket(sol decimal.Decimal) bucket {
	abs := sol.Abs()
	switch {
	case abs.LessThan(smallThreshold):
		return bucketSmall
	case abs.LessThan(mediumThreshold):
		return bucketMedium
	default:
		return bucketLarge
	}
}

func slippage(model SlippageModel, sol decimal.Decimal) float64 {
	table, ok := slippageTable[model]
	if !ok {
		table = slippageTable[ModelModerate]
	}
	return table[sizeBucket(sol)]
}

// priceDrift is the delay-proportional drift term applied to both entry
// and exit impact.
func priceDrift(delaySeconds int) float64 {
	return float64(delaySeconds) * 0.001
}

// Followability maps a time-to-first-sell latency to a [0,1] weight: the
// faster the wallet exited, the less useful a copy-trader following it
// in would have been.
func Followability(timeToFirstSellSeconds int64) float64 {
	switch {
	case timeToFirstSellSeconds < 30:
		return 0.0
	case timeToFirstSellSeconds < 60:
		return 0.2
	case timeToFirstSellSeconds < 120:
		return 0.5
	case timeToFirstSellSeconds < 300:
		return 0.8
	default:
		return 1.0
	}
}

// QuickDumpWindowSeconds is the latency under which a round-trip is
// flagged as a quick-dump.
const QuickDumpWindowSeconds = 60

// FollowableScoreThreshold is the minimum score at which a round-trip
// counts as followable.
const FollowableScoreThreshold = 0.5

// MintResult is the per-mint simulation outcome.
type MintResult struct {
	TokenMint              string
	ActualPnL              decimal.Decimal
	SimulatedPnL           decimal.Decimal
	FirstSellLatencySeconds int64
	FollowabilityScore     float64
	Followable             bool
	QuickDump              bool
}

// Result aggregates the per-mint simulation into the FollowScore shape.
type Result struct {
	Wallet                 string
	DelaySeconds           int
	SlippageModel          SlippageModel
	Mints                  []MintResult
	ActualPnLTotal         decimal.Decimal
	SimulatedPnLTotal      decimal.Decimal
	FollowabilityRatio     decimal.Decimal
	QuickDumpRate          decimal.Decimal
	FollowableTokenCount   int
	UnfollowableTokenCount int
	AvgEntrySizeSOL        decimal.Decimal
}

// Simulate runs the follow simulation for wallet over trades, considering
// only mints with at least one buy and one sell.
func Simulate(wallet string, trades []trademodel.Trade, delaySeconds int, model SlippageModel) Result {
	r := Result{Wallet: wallet, DelaySeconds: delaySeconds, SlippageModel: model}
	drift := priceDrift(delaySeconds)

	byMint := map[string][]trademodel.Trade{}
	for _, t := range trades {
		if t.Wallet != wallet {
			continue
		}
		byMint[t.TokenMint] = append(byMint[t.TokenMint], t)
	}

	var entrySizes []decimal.Decimal
	quickDumps := 0
	roundTrips := 0

	mints := make([]string, 0, len(byMint))
	for mint := range byMint {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	for _, mint := range mints {
		group := byMint[mint]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Timestamp < group[j].Timestamp })

		var firstBuy, firstSell *trademodel.Trade
		actualBuySOL := decimal.Zero
		actualSellSOL := decimal.Zero
		simCost := decimal.Zero
		simProceeds := decimal.Zero

		for i := range group {
			t := &group[i]
			switch t.Side {
			case trademodel.SideBuy:
				if firstBuy == nil {
					firstBuy = t
				}
				actualBuySOL = actualBuySOL.Add(t.SOLAmount)
				impact := 1 + slippage(model, t.SOLAmount) + drift
				simCost = simCost.Add(t.SOLAmount.Mul(decimal.NewFromFloat(impact)))
				entrySizes = append(entrySizes, t.SOLAmount)
			case trademodel.SideSell:
				if firstSell == nil {
					firstSell = t
				}
				actualSellSOL = actualSellSOL.Add(t.SOLAmount)
				impact := 1 - slippage(model, t.SOLAmount) - drift
				simProceeds = simProceeds.Add(t.SOLAmount.Mul(decimal.NewFromFloat(impact)))
			}
		}

		if firstBuy == nil || firstSell == nil {
			continue
		}
		roundTrips++

		latency := firstSell.Timestamp - firstBuy.Timestamp
		score := Followability(latency)
		actualPnL := actualSellSOL.Sub(actualBuySOL)
		simulatedPnL := simProceeds.Sub(simCost).Mul(decimal.NewFromFloat(score))

		mr := MintResult{
			TokenMint:               mint,
			ActualPnL:               actualPnL,
			SimulatedPnL:            simulatedPnL,
			FirstSellLatencySeconds: latency,
			FollowabilityScore:      score,
			Followable:              score >= FollowableScoreThreshold,
			QuickDump:               latency < QuickDumpWindowSeconds,
		}
		r.Mints = append(r.Mints, mr)
		r.ActualPnLTotal = r.ActualPnLTotal.Add(actualPnL)
		r.SimulatedPnLTotal = r.SimulatedPnLTotal.Add(simulatedPnL)
		if mr.Followable {
			r.FollowableTokenCount++
		} else {
			r.UnfollowableTokenCount++
		}
		if mr.QuickDump {
			quickDumps++
		}
	}

	if r.ActualPnLTotal.Sign() > 0 {
		r.FollowabilityRatio = r.SimulatedPnLTotal.Div(r.ActualPnLTotal)
	}
	if roundTrips > 0 {
		r.QuickDumpRate = decimal.NewFromInt(int64(quickDumps)).Div(decimal.NewFromInt(int64(roundTrips)))
	}
	if len(entrySizes) > 0 {
		total := decimal.Zero
		for _, s := range entrySizes {
			total = total.Add(s)
		}
		r.AvgEntrySizeSOL = total.Div(decimal.NewFromInt(int64(len(entrySizes))))
	}

	return r
}

// ToFollowScore projects a Result into the persisted trademodel.FollowScore
// shape.
func (r Result) ToFollowScore() trademodel.FollowScore {
	var p50, p90 float64
	if len(r.Mints) > 0 {
		latencies := make([]float64, len(r.Mints))
		for i, m := range r.Mints {
			latencies[i] = float64(m.FirstSellLatencySeconds)
		}
		p50 = percentile(latencies, 50)
		p90 = percentile(latencies, 90)
	}
	return trademodel.FollowScore{
		Wallet:                 r.Wallet,
		DelaySeconds:           r.DelaySeconds,
		SlippageModel:          string(r.SlippageModel),
		ActualPnL:              r.ActualPnLTotal,
		SimulatedPnL:           r.SimulatedPnLTotal,
		FollowabilityRatio:     r.FollowabilityRatio,
		QuickDumpRate:          r.QuickDumpRate,
		TimeToFirstSellP50:     p50,
		TimeToFirstSellP90:     p90,
		FollowableTokenCount:   r.FollowableTokenCount,
		UnfollowableTokenCount: r.UnfollowableTokenCount,
		AvgEntrySizeSOL:        r.AvgEntrySizeSOL,
	}
}

// percentile follows the fixed definition used across this codebase:
// index = min(N-1, ceil(p/100*N) - 1).
func percentile(values []float64, p float64) float64 {
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
