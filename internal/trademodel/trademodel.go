// Package trademodel defines the canonical types shared by every stage of
// the analytics pipeline: trades, positions, lots, follow scores, and the
// DEX/intermediate-token registries that the parser and FIFO engine key off.
package trademodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the fixed conversion constant.
const LamportsPerSOL = 1_000_000_000

// Side distinguishes a buy from a sell leg of a Trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// DustThreshold is the absolute token delta below which a parser leg is
// dropped as noise. SOL deltas are not dust-filtered; see NegligibleSOLDelta.
var DustThreshold = decimal.New(1, -6) // 1e-6

// NegligibleSOLDelta is the |SOL delta| threshold under which Strategy A
// falls back to the intermediate-flow proxy (Case A2).
var NegligibleSOLDelta = decimal.New(1, -4) // 1e-4

// StablecoinToSOLDivisor is the configurable magnitude heuristic used in
// Strategy A2 when only intermediate (stablecoin) flow is observed and no
// SOL delta is present. 100 is kept as the default but is overridable via
// config, rather than baked in as a hardcoded constant.
var StablecoinToSOLDivisor = decimal.NewFromInt(100)

// wrappedSOLMints are mint addresses treated identically to native SOL.
var wrappedSOLMints = map[string]bool{
	"So11111111111111111111111111111111111111112": true,
}

// IsWrappedSOL reports whether mint is a wrapped/native SOL identifier.
func IsWrappedSOL(mint string) bool {
	return wrappedSOLMints[mint]
}

// RegisterWrappedSOLMint adds an additional mint to the wrapped-SOL set.
func RegisterWrappedSOLMint(mint string) {
	wrappedSOLMints[mint] = true
}

// Well-known intermediate token mints: stablecoins and liquid-staking
// tokens commonly used as routing hops.
const (
	MintUSDC    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT    = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintUSDS    = "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTGgP"
	MintUSD1    = "USD1ttGY1N17NEEHLmELoaybftRBUSErhqYiQzvEpMq"
	MintMSOL    = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	MintBSOL    = "bSo13r4TkiE4KumL71LsHTPpL2euBYLFx6h9HP3piy1"
	MintStSOL   = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
	MintJitoSOL = "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"
)

var intermediateMints = map[string]bool{
	MintUSDC:    true,
	MintUSDT:    true,
	MintUSDS:    true,
	MintUSD1:    true,
	MintMSOL:    true,
	MintBSOL:    true,
	MintStSOL:   true,
	MintJitoSOL: true,
}

// IsIntermediate reports whether mint is in the fixed stablecoin/LST
// routing-hop set, or is wrapped/native SOL.
func IsIntermediate(mint string) bool {
	return intermediateMints[mint] || IsWrappedSOL(mint)
}

// knownDEXVendors is the case-insensitive substring list used to normalize
// a source string into a DEX label.
var knownDEXVendors = []string{
	"Jupiter", "Raydium", "Pump.fun", "Orca", "Meteora", "Moonshot", "Phoenix", "Lifinity",
}

// DEXLabel resolves a DEX display label from a transaction's source string
// and, failing that, its type string.
func DEXLabel(source, txType string) string {
	lower := strings.ToLower(source)
	for _, vendor := range knownDEXVendors {
		if strings.Contains(lower, strings.ToLower(vendor)) {
			return vendor
		}
	}
	if source != "" {
		return source
	}
	if strings.Contains(strings.ToLower(txType), "swap") {
		return "DEX Swap"
	}
	return "Unknown"
}

// KnownProgramIDs maps well-known Solana program ids to their DEX label,
// used by the lower-level parsed-record fallback path.
var KnownProgramIDs = map[string]string{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4": "Jupiter",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "Pump.fun",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "Orca",
	"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo":  "Meteora",
	"MoonCVVNZFSYkqNXP6bxHLPL6QQJiMagDL3qcqUQTrG":  "Moonshot",
	"PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqLR89jjFHGqdXY":  "Phoenix",
	"LifinityYUcPSzC7X8NdGV8z4WkN3KhyhVc8bSQZ9yQ":  "Lifinity",
}

// DEXLabelFromProgramID scans an ordered instruction program-id list for the
// first recognized vendor, used when only a lower-level parsed record (not
// an enhanced transaction) is available.
func DEXLabelFromProgramID(programIDs []string) string {
	for _, id := range programIDs {
		if label, ok := KnownProgramIDs[id]; ok {
			return label
		}
	}
	return "Unknown"
}

// Wallet is a tracked address, its owner, display metadata, sync cursor,
// and cached rollups.
type Wallet struct {
	Address  string
	Owner    string
	Name     string
	Icon     string

	LastSignature    string
	FirstSyncedAt    *time.Time
	LastSyncedAt     *time.Time
	TotalIngested    int64

	TotalRealizedPnL decimal.Decimal
	WinRate          decimal.Decimal
	TotalSOLVolume   decimal.Decimal
	TotalTrades      int64
	QuickFlipRate    decimal.Decimal
	ExitedTokenRate  decimal.Decimal

	CreatedAt time.Time
}

// RawTransaction is an ingested on-chain record keyed by its signature.
type RawTransaction struct {
	Signature string
	Wallet    string
	BlockTime int64
	Slot      uint64
	Payload   []byte
	Parsed    bool
}

// Trade is an atomic buy/sell leg. Its id is deterministic:
// "{signature}:{buy|sell}:{mint}".
type Trade struct {
	ID            string
	Wallet        string
	Signature     string
	Timestamp     int64
	Side          Side
	TokenMint     string
	TokenAmount   decimal.Decimal
	SOLAmount     decimal.Decimal
	PricePerToken decimal.Decimal
	DEX           string
}

// TradeID builds the deterministic id for a trade leg.
func TradeID(signature string, side Side, mint string) string {
	return fmt.Sprintf("%s:%s:%s", signature, side, mint)
}

// NewTrade constructs a Trade, deriving price_per_token from sol/token
// amounts except for zero-cost acquisitions, which keep a zero price.
func NewTrade(wallet, signature string, timestamp int64, side Side, mint string, tokenAmount, solAmount decimal.Decimal, dex string) Trade {
	price := decimal.Zero
	if !tokenAmount.IsZero() && !solAmount.IsZero() {
		price = solAmount.Div(tokenAmount)
	}
	return Trade{
		ID:            TradeID(signature, side, mint),
		Wallet:        wallet,
		Signature:     signature,
		Timestamp:     timestamp,
		Side:          side,
		TokenMint:     mint,
		TokenAmount:   tokenAmount,
		SOLAmount:     solAmount,
		PricePerToken: price,
		DEX:           dex,
	}
}

// Position is the per (wallet, token) lifetime aggregate.
type Position struct {
	Wallet           string
	TokenMint        string
	TotalBought      decimal.Decimal
	TotalSold        decimal.Decimal
	TotalCostBasis   decimal.Decimal
	TotalProceeds    decimal.Decimal
	RemainingTokens  decimal.Decimal
	AverageBuyPrice  decimal.Decimal
	RealizedPnL      decimal.Decimal
	TradeCount       int
	WinCount         int
	FirstTradeAt     int64
	LastTradeAt      int64
}

// CostBasisLot is an open FIFO lot.
type CostBasisLot struct {
	Wallet          string
	TokenMint       string
	OriginTradeID   string
	Timestamp       int64
	OriginalAmount  decimal.Decimal
	RemainingAmount decimal.Decimal
	Price           decimal.Decimal
}

// FollowScore is the per-wallet follow-simulation output.
type FollowScore struct {
	Wallet                string
	DelaySeconds          int
	SlippageModel         string
	ActualPnL             decimal.Decimal
	SimulatedPnL          decimal.Decimal
	FollowabilityRatio    decimal.Decimal
	QuickDumpRate         decimal.Decimal
	TimeToFirstSellP50    float64
	TimeToFirstSellP90    float64
	FollowableTokenCount  int
	UnfollowableTokenCount int
	AvgEntrySizeSOL       decimal.Decimal
}
