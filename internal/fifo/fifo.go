// Package fifo recomputes per-wallet FIFO cost-basis lots and positions
// from a trade stream, and derives timeframe-scoped PnL
// summaries over the resulting lifetime position. The lot
// queue pattern follows the front-of-queue matching idiom used throughout
// the source's portfolio engine.
package fifo

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// Result is the full output of RecomputeWallet: one Position per mint and
// the surviving open lots across all mints.
type Result struct {
	Positions map[string]trademodel.Position
	Lots      map[string][]trademodel.CostBasisLot
}

// RecomputeWallet groups trades by mint, replays each group in chronological
// order maintaining an oldest-first lot queue, and returns the resulting
// positions and open lots. It never mutates trades and has no side effects
// of its own — callers are responsible for persisting the result (spec
// §4.3 step 1 "delete all existing lots and positions" is the caller's
// job, via the store).
func RecomputeWallet(wallet string, trades []trademodel.Trade) Result {
	byMint := map[string][]trademodel.Trade{}
	for _, t := range trades {
		if t.Wallet != wallet {
			continue
		}
		byMint[t.TokenMint] = append(byMint[t.TokenMint], t)
	}

	positions := map[string]trademodel.Position{}
	lots := map[string][]trademodel.CostBasisLot{}

	for mint, group := range byMint {
		sortTrades(group)
		pos, openLots := recomputeMint(wallet, mint, group)
		positions[mint] = pos
		if len(openLots) > 0 {
			lots[mint] = openLots
		}
	}

	return Result{Positions: positions, Lots: lots}
}

// sortTrades orders a single mint's trades ascending by timestamp, ties
// broken by signature then buys-before-sells at equal timestamp+signature.
func sortTrades(trades []trademodel.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		a, b := trades[i], trades[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Signature != b.Signature {
			return a.Signature < b.Signature
		}
		return a.Side == trademodel.SideBuy && b.Side == trademodel.SideSell
	})
}

func recomputeMint(wallet, mint string, trades []trademodel.Trade) (trademodel.Position, []trademodel.CostBasisLot) {
	pos := trademodel.Position{Wallet: wallet, TokenMint: mint}

	type lot struct {
		originTradeID string
		timestamp     int64
		original      decimal.Decimal
		remaining     decimal.Decimal
		price         decimal.Decimal
	}
	var queue []lot

	for i, t := range trades {
		if i == 0 || t.Timestamp < pos.FirstTradeAt {
			pos.FirstTradeAt = t.Timestamp
		}
		if t.Timestamp > pos.LastTradeAt {
			pos.LastTradeAt = t.Timestamp
		}
		pos.TradeCount++

		switch t.Side {
		case trademodel.SideBuy:
			price := decimal.Zero
			if !t.TokenAmount.IsZero() {
				price = t.SOLAmount.Div(t.TokenAmount)
			}
			queue = append(queue, lot{
				originTradeID: t.ID,
				timestamp:     t.Timestamp,
				original:      t.TokenAmount,
				remaining:     t.TokenAmount,
				price:         price,
			})
			pos.TotalBought = pos.TotalBought.Add(t.TokenAmount)
			pos.TotalCostBasis = pos.TotalCostBasis.Add(t.SOLAmount)

		case trademodel.SideSell:
			remaining := t.TokenAmount
			matchedCost := decimal.Zero

			consumed := 0
			for idx := range queue {
				if remaining.Sign() <= 0 {
					break
				}
				l := &queue[idx]
				if l.remaining.Sign() <= 0 {
					consumed++
					continue
				}
				matched := l.remaining
				if matched.GreaterThan(remaining) {
					matched = remaining
				}
				l.remaining = l.remaining.Sub(matched)
				remaining = remaining.Sub(matched)
				matchedCost = matchedCost.Add(matched.Mul(l.price))
				if l.remaining.Sign() <= 0 {
					consumed++
				}
			}
			if consumed > 0 {
				queue = queue[consumed:]
			}
			// Unmatched remainder (remaining > 0) is treated as zero-cost
			// proceeds rather than aborting.

			pos.TotalSold = pos.TotalSold.Add(t.TokenAmount)
			pos.TotalProceeds = pos.TotalProceeds.Add(t.SOLAmount)
			sellPnL := t.SOLAmount.Sub(matchedCost)
			pos.RealizedPnL = pos.RealizedPnL.Add(sellPnL)
			if sellPnL.Sign() > 0 {
				pos.WinCount++
			}
		}
	}

	pos.RemainingTokens = pos.TotalBought.Sub(pos.TotalSold)
	if pos.RemainingTokens.Sign() < 0 {
		pos.RemainingTokens = decimal.Zero
	}
	if pos.TotalBought.Sign() > 0 {
		pos.AverageBuyPrice = pos.TotalCostBasis.Div(pos.TotalBought)
	}

	var openLots []trademodel.CostBasisLot
	for _, l := range queue {
		if l.remaining.Sign() <= 0 {
			continue
		}
		openLots = append(openLots, trademodel.CostBasisLot{
			Wallet:          wallet,
			TokenMint:       mint,
			OriginTradeID:   l.originTradeID,
			Timestamp:       l.timestamp,
			OriginalAmount:  l.original,
			RemainingAmount: l.remaining,
			Price:           l.price,
		})
	}

	return pos, openLots
}
