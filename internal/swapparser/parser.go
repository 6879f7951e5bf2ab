// Package swapparser converts enhanced transaction records into canonical
// buy/sell trades for a tracked wallet. Parsing is a pure
// function of its inputs: the same transaction and wallet always yield the
// same trades, and parsing has no side effects.
package swapparser

import (
	"github.com/shopspring/decimal"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

// Options configures the divisor used by Strategy A2's stablecoin-to-SOL
// magnitude heuristic. Zero-value Options uses the package default (100).
type Options struct {
	StablecoinToSOLDivisor decimal.Decimal
}

func (o Options) divisor() decimal.Decimal {
	if o.StablecoinToSOLDivisor.IsZero() {
		return trademodel.StablecoinToSOLDivisor
	}
	return o.StablecoinToSOLDivisor
}

// Parse converts one enhanced transaction into zero or more canonical
// trades for wallet, trying strategies A, B, then C in order and returning
// the first to produce at least one trade.
func Parse(tx EnhancedTransaction, wallet string) []trademodel.Trade {
	return ParseWithOptions(tx, wallet, Options{})
}

// ParseWithOptions is Parse with an explicit Options override.
func ParseWithOptions(tx EnhancedTransaction, wallet string, opts Options) []trademodel.Trade {
	if tx.TransactionError != nil {
		return nil
	}

	if trades := strategyA(tx, wallet, opts); len(trades) > 0 {
		return trades
	}
	if trades := strategyB(tx, wallet); len(trades) > 0 {
		return trades
	}
	if trades := strategyC(tx, wallet); len(trades) > 0 {
		return trades
	}
	return nil
}

func dexLabel(tx EnhancedTransaction) string {
	if len(tx.Instructions) > 0 {
		ids := make([]string, len(tx.Instructions))
		for i, instr := range tx.Instructions {
			ids[i] = instr.ProgramID
		}
		if label := trademodel.DEXLabelFromProgramID(ids); label != "Unknown" {
			return label
		}
	}
	return trademodel.DEXLabel(tx.Source, tx.Type)
}

// ---- Strategy A: token-transfer ledger ----

func strategyA(tx EnhancedTransaction, wallet string, opts Options) []trademodel.Trade {
	solDelta := decimal.Zero
	for _, nt := range tx.NativeTransfers {
		if nt.FromUserAccount == wallet {
			solDelta = solDelta.Sub(lamportsToSOL(nt.AmountLamports))
		}
		if nt.ToUserAccount == wallet {
			solDelta = solDelta.Add(lamportsToSOL(nt.AmountLamports))
		}
	}

	tokenDeltas := map[string]decimal.Decimal{}
	for _, tt := range tx.TokenTransfers {
		if tt.FromUserAccount == wallet {
			tokenDeltas[tt.Mint] = tokenDeltas[tt.Mint].Sub(tt.TokenAmount)
		}
		if tt.ToUserAccount == wallet {
			tokenDeltas[tt.Mint] = tokenDeltas[tt.Mint].Add(tt.TokenAmount)
		}
	}

	// Wrapped SOL behaves like native SOL: fold its delta in and drop it
	// from the token map.
	for mint, delta := range tokenDeltas {
		if trademodel.IsWrappedSOL(mint) {
			solDelta = solDelta.Add(delta)
			delete(tokenDeltas, mint)
		}
	}

	targets := map[string]decimal.Decimal{}
	intermediates := map[string]decimal.Decimal{}
	for mint, delta := range tokenDeltas {
		if delta.Abs().LessThan(trademodel.DustThreshold) {
			continue
		}
		if trademodel.IsIntermediate(mint) {
			intermediates[mint] = delta
		} else {
			targets[mint] = delta
		}
	}

	if len(targets) == 0 {
		return nil
	}

	label := dexLabel(tx)

	if solDelta.Abs().GreaterThanOrEqual(trademodel.NegligibleSOLDelta) {
		return allocateProportional(tx, wallet, targets, solDelta.Abs(), label, nil)
	}

	if len(intermediates) > 0 {
		proxy := decimal.Zero
		netIntermediate := decimal.Zero
		for _, delta := range intermediates {
			proxy = proxy.Add(delta.Abs())
			netIntermediate = netIntermediate.Add(delta)
		}
		solValue := solDelta.Abs()
		if solValue.IsZero() {
			solValue = proxy.Div(opts.divisor())
		}
		// Direction comes from the net intermediate flow, not each
		// target's own sign: sent intermediates (net < 0) mean the
		// wallet bought the target(s); received intermediates mean it
		// sold them.
		side := trademodel.SideSell
		if netIntermediate.Sign() < 0 {
			side = trademodel.SideBuy
		}
		return allocateProportional(tx, wallet, targets, solValue, label, &side)
	}

	// Case A3: airdrop / free mint — only received tokens count.
	var trades []trademodel.Trade
	for mint, delta := range targets {
		if delta.Sign() <= 0 {
			continue
		}
		trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
			trademodel.SideBuy, mint, delta, decimal.Zero, label))
	}
	return trades
}

// allocateProportional splits solValue across targets in proportion to
// |delta|, producing one buy or sell per mint. When forcedSide is nil
// (Case A1) each mint's side follows its own delta sign; when forcedSide
// is set (Case A2) every mint takes that side, since A2's direction comes
// from the net intermediate flow rather than any single target's sign.
func allocateProportional(tx EnhancedTransaction, wallet string, targets map[string]decimal.Decimal, solValue decimal.Decimal, label string, forcedSide *trademodel.Side) []trademodel.Trade {
	totalAbs := decimal.Zero
	for _, delta := range targets {
		totalAbs = totalAbs.Add(delta.Abs())
	}
	if totalAbs.IsZero() {
		return nil
	}

	var trades []trademodel.Trade
	for mint, delta := range targets {
		portion := delta.Abs().Div(totalAbs).Mul(solValue)
		side := trademodel.SideSell
		if delta.Sign() > 0 {
			side = trademodel.SideBuy
		}
		if forcedSide != nil {
			side = *forcedSide
		}
		trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
			side, mint, delta.Abs(), portion, label))
	}
	return trades
}

// ---- Strategy B: account-data balance diffs ----

func strategyB(tx EnhancedTransaction, wallet string) []trademodel.Trade {
	solDelta := decimal.Zero
	for _, ad := range tx.AccountData {
		if ad.Account == wallet {
			solDelta = solDelta.Add(lamportsToSOL(ad.NativeBalanceChange))
		}
	}

	tokenDeltas := map[string]decimal.Decimal{}
	for _, ad := range tx.AccountData {
		for _, tbc := range ad.TokenBalanceChanges {
			if tbc.UserAccount != wallet {
				continue
			}
			if trademodel.IsWrappedSOL(tbc.Mint) {
				continue
			}
			tokenDeltas[tbc.Mint] = tokenDeltas[tbc.Mint].Add(tbc.RawAmount.Real())
		}
	}

	label := dexLabel(tx)
	absSOL := solDelta.Abs()

	var trades []trademodel.Trade
	for mint, delta := range tokenDeltas {
		if delta.IsZero() {
			continue
		}
		if delta.Sign() > 0 {
			trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
				trademodel.SideBuy, mint, delta, absSOL, label))
			continue
		}
		sellSOL := decimal.Zero
		if solDelta.Sign() > 0 {
			sellSOL = solDelta
		}
		trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
			trademodel.SideSell, mint, delta.Abs(), sellSOL, label))
	}
	return trades
}

// ---- Strategy C: declared swap event ----

func strategyC(tx EnhancedTransaction, wallet string) []trademodel.Trade {
	if tx.Swap == nil {
		return nil
	}
	label := dexLabel(tx)
	var trades []trademodel.Trade

	if tx.Swap.NativeInput != nil && tx.Swap.NativeInput.Account == wallet {
		solSpent := lamportsToSOL(tx.Swap.NativeInput.AmountLamports)
		for _, out := range tx.Swap.TokenOutputs {
			if out.UserAccount != wallet || trademodel.IsWrappedSOL(out.Mint) || out.Amount.IsZero() {
				continue
			}
			trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
				trademodel.SideBuy, out.Mint, out.Amount, solSpent, label))
		}
	}

	if tx.Swap.NativeOutput != nil && tx.Swap.NativeOutput.Account == wallet {
		solReceived := lamportsToSOL(tx.Swap.NativeOutput.AmountLamports)
		for _, in := range tx.Swap.TokenInputs {
			if in.UserAccount != wallet || trademodel.IsWrappedSOL(in.Mint) || in.Amount.IsZero() {
				continue
			}
			trades = append(trades, trademodel.NewTrade(wallet, tx.Signature, tx.Timestamp,
				trademodel.SideSell, in.Mint, in.Amount, solReceived, label))
		}
	}

	return trades
}
