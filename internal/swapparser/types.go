package swapparser

import "github.com/shopspring/decimal"

// EnhancedTransaction mirrors the upstream enhanced-transactions provider
// record. Token amounts on nativeTransfers are raw lamports;
// tokenTransfers carry already-decimal-adjusted UI amounts; accountData
// token balance changes carry a raw string integer amount plus a
// decimals count that callers must scale themselves.
type EnhancedTransaction struct {
	Signature        string
	Timestamp        int64
	Type             string
	Source           string
	TransactionError interface{}

	NativeTransfers []NativeTransfer
	TokenTransfers  []TokenTransfer
	AccountData     []AccountData

	Swap *SwapEvent

	// Instructions is populated only for the lower-level parsed-record
	// fallback path used to derive a DEX label from a program id; it is
	// nil for ordinary enhanced transactions.
	Instructions []Instruction
}

// NativeTransfer is a native SOL movement in lamports.
type NativeTransfer struct {
	FromUserAccount string
	ToUserAccount   string
	AmountLamports  int64
}

// TokenTransfer is an SPL token movement with a UI (decimal-adjusted)
// amount.
type TokenTransfer struct {
	FromUserAccount string
	ToUserAccount   string
	Mint            string
	TokenAmount     decimal.Decimal
}

// AccountData is one entry of the transaction's per-account balance-diff
// view, consumed by Strategy B.
type AccountData struct {
	Account             string
	NativeBalanceChange int64
	TokenBalanceChanges []TokenBalanceChange
}

// TokenBalanceChange is one per-account-data token delta.
type TokenBalanceChange struct {
	Mint        string
	UserAccount string
	RawAmount   RawTokenAmount
}

// RawTokenAmount is the raw integer amount plus its decimals count.
type RawTokenAmount struct {
	TokenAmount string
	Decimals    int
}

// Real converts a RawTokenAmount to a decimal-adjusted value.
func (r RawTokenAmount) Real() decimal.Decimal {
	raw, err := decimal.NewFromString(r.TokenAmount)
	if err != nil {
		return decimal.Zero
	}
	if r.Decimals <= 0 {
		return raw
	}
	scale := decimal.New(1, int32(r.Decimals))
	return raw.Div(scale)
}

// SwapEvent is the declared-swap-event fallback shape (Strategy C).
type SwapEvent struct {
	NativeInput  *NativeSwapLeg
	NativeOutput *NativeSwapLeg
	TokenInputs  []TokenSwapLeg
	TokenOutputs []TokenSwapLeg
}

// NativeSwapLeg is a native SOL leg of a declared swap event.
type NativeSwapLeg struct {
	Account        string
	AmountLamports int64
}

// TokenSwapLeg is a token leg of a declared swap event.
type TokenSwapLeg struct {
	UserAccount string
	Mint        string
	Amount      decimal.Decimal
}

// Instruction is one instruction of a lower-level parsed record, used only
// by the program-id DEX-label fallback.
type Instruction struct {
	ProgramID string
}

func lamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).Div(decimal.NewFromInt(1_000_000_000))
}
