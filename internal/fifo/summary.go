package fifo

import (
	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// Timeframe names a fixed reporting window.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"
	TimeframeAll Timeframe = "all"
)

var timeframeSeconds = map[Timeframe]int64{
	Timeframe24h: 24 * 3600,
	Timeframe7d:  7 * 24 * 3600,
	Timeframe30d: 30 * 24 * 3600,
	Timeframe90d: 90 * 24 * 3600,
}

// PeriodStart resolves the start of a timeframe window ending at now.
// TimeframeAll (or an unrecognized timeframe) resolves to 0, the start of
// time.
func PeriodStart(tf Timeframe, now int64) int64 {
	d, ok := timeframeSeconds[tf]
	if !ok {
		return 0
	}
	start := now - d
	if start < 0 {
		return 0
	}
	return start
}

// TradeSummary is one in-period trade annotated with its PnL contribution
// (sells only; buys carry a zero contribution).
type TradeSummary struct {
	Trade       trademodel.Trade
	Contribution decimal.Decimal
}

// Summary is a timeframe-scoped report. It is always computed against the
// lifetime position produced by RecomputeWallet over *all* trades — never
// a recomputation restricted to the window — an explicit average-price
// approximation rather than a true windowed FIFO recompute.
type Summary struct {
	Wallet          string
	Timeframe       Timeframe
	PeriodStart     int64
	RealizedPnL     decimal.Decimal
	TotalSOLVolume  decimal.Decimal
	AvgTradeSize    decimal.Decimal
	UniqueTokens    int
	AvgHoldDuration float64
	WinCount        int
	LossCount       int
	BestTrade       *TradeSummary
	WorstTrade      *TradeSummary
}

// Summarize computes the period summary for wallet over allTrades at the
// given timeframe and "now". It invokes RecomputeWallet over the full
// trade set first so lifetime.average_buy_price reflects the wallet's
// entire history.
func Summarize(wallet string, allTrades []trademodel.Trade, tf Timeframe, now int64) Summary {
	lifetime := RecomputeWallet(wallet, allTrades)
	periodStart := PeriodStart(tf, now)

	var inPeriod []trademodel.Trade
	for _, t := range allTrades {
		if t.Wallet == wallet && t.Timestamp >= periodStart {
			inPeriod = append(inPeriod, t)
		}
	}

	byMint := map[string][]trademodel.Trade{}
	for _, t := range inPeriod {
		byMint[t.TokenMint] = append(byMint[t.TokenMint], t)
	}

	s := Summary{Wallet: wallet, Timeframe: tf, PeriodStart: periodStart}
	tokens := map[string]bool{}
	var holdDurations []float64
	var tradeCount int

	for mint, group := range byMint {
		sortTrades(group)
		tokens[mint] = true

		pos, hasLifetime := lifetime.Positions[mint]
		avgBuyPrice := decimal.Zero
		if hasLifetime {
			avgBuyPrice = pos.AverageBuyPrice
		}

		var firstAt, lastAt int64
		sawAny := false
		for _, t := range group {
			tradeCount++
			s.TotalSOLVolume = s.TotalSOLVolume.Add(t.SOLAmount)
			if !sawAny || t.Timestamp < firstAt {
				firstAt = t.Timestamp
			}
			if t.Timestamp > lastAt {
				lastAt = t.Timestamp
			}
			sawAny = true

			if t.Side != trademodel.SideSell {
				continue
			}
			contribution := t.SOLAmount.Sub(t.TokenAmount.Mul(avgBuyPrice))
			s.RealizedPnL = s.RealizedPnL.Add(contribution)
			if contribution.Sign() > 0 {
				s.WinCount++
			} else {
				s.LossCount++
			}

			ts := TradeSummary{Trade: t, Contribution: contribution}
			if s.BestTrade == nil || contribution.GreaterThan(s.BestTrade.Contribution) {
				cp := ts
				s.BestTrade = &cp
			}
			if s.WorstTrade == nil || contribution.LessThan(s.WorstTrade.Contribution) {
				cp := ts
				s.WorstTrade = &cp
			}
		}

		hadSell := false
		for _, t := range group {
			if t.Side == trademodel.SideSell {
				hadSell = true
				break
			}
		}
		if hadSell && sawAny {
			holdDurations = append(holdDurations, float64(lastAt-firstAt))
		}
	}

	s.UniqueTokens = len(tokens)
	if tradeCount > 0 {
		s.AvgTradeSize = s.TotalSOLVolume.Div(decimal.NewFromInt(int64(tradeCount)))
	}
	if len(holdDurations) > 0 {
		sum := 0.0
		for _, d := range holdDurations {
			sum += d
		}
		s.AvgHoldDuration = sum / float64(len(holdDurations))
	}

	return s
}
