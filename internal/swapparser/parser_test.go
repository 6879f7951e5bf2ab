package swapparser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlinklfo/walletanalytics/internal/trademodel"
)

const wallet = "Wa11etAddressxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
const otherParty = "Cou11terpartyxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
const mintFoo = "FooMintxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
const mintBar = "BarMintxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParse_DirectBuy(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-buy-1",
		Timestamp: 1000,
		Type:      "SWAP",
		Source:    "JUPITER",
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: wallet, ToUserAccount: otherParty, AmountLamports: 1_000_000_000},
		},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("500")},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.Equal(t, mintFoo, tr.TokenMint)
	assert.True(t, tr.SOLAmount.Equal(dec("1")), "sol amount: %s", tr.SOLAmount)
	assert.True(t, tr.TokenAmount.Equal(dec("500")))
	assert.Equal(t, "Jupiter", tr.DEX)
}

func TestParse_DirectSell(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-sell-1",
		Timestamp: 2000,
		Type:      "SWAP",
		Source:    "RAYDIUM",
		NativeTransfers: []NativeTransfer{
			{FromUserAccount: otherParty, ToUserAccount: wallet, AmountLamports: 2_000_000_000},
		},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: mintFoo, TokenAmount: dec("500")},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideSell, tr.Side)
	assert.True(t, tr.SOLAmount.Equal(dec("2")))
}

func TestParse_MultiHopViaStablecoin(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-hop-1",
		Timestamp: 3000,
		Type:      "SWAP",
		Source:    "Jupiter Aggregator v6",
		TokenTransfers: []TokenTransfer{
			// wallet sends USDC out, receives target mint in — no native SOL leg at all.
			{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: trademodel.MintUSDC, TokenAmount: dec("50")},
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("1000")},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.Equal(t, mintFoo, tr.TokenMint)
	// 50 USDC / 100 (default divisor) = 0.5 SOL proxy value.
	assert.True(t, tr.SOLAmount.Equal(dec("0.5")), "sol amount: %s", tr.SOLAmount)
}

func TestParse_Airdrop(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-airdrop-1",
		Timestamp: 4000,
		Type:      "TRANSFER",
		Source:    "",
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("10000")},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.True(t, tr.SOLAmount.IsZero())
	assert.True(t, tr.PricePerToken.IsZero())
}

func TestParse_TransactionErrorDiscarded(t *testing.T) {
	tx := EnhancedTransaction{
		Signature:        "sig-err-1",
		TransactionError: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("1")},
		},
	}

	trades := Parse(tx, wallet)
	assert.Nil(t, trades)
}

func TestParse_DustBelowThresholdDropped(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-dust-1",
		Timestamp: 5000,
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("0.0000001")},
		},
	}

	trades := Parse(tx, wallet)
	assert.Nil(t, trades)
}

func TestParse_FallsBackToAccountData(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-fallback-1",
		Timestamp: 6000,
		Source:    "Orca Whirlpool",
		AccountData: []AccountData{
			{
				Account:             wallet,
				NativeBalanceChange: -1_500_000_000,
				TokenBalanceChanges: []TokenBalanceChange{
					{Mint: mintBar, UserAccount: wallet, RawAmount: RawTokenAmount{TokenAmount: "250000000", Decimals: 6}},
				},
			},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.True(t, tr.TokenAmount.Equal(dec("250")), "token amount: %s", tr.TokenAmount)
	assert.True(t, tr.SOLAmount.Equal(dec("1.5")))
	assert.Equal(t, "Orca", tr.DEX)
}

func TestParse_DeclaredSwapEventFallback(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-swapevent-1",
		Timestamp: 7000,
		Source:    "Phoenix",
		Swap: &SwapEvent{
			NativeInput: &NativeSwapLeg{Account: wallet, AmountLamports: 3_000_000_000},
			TokenOutputs: []TokenSwapLeg{
				{UserAccount: wallet, Mint: mintFoo, Amount: dec("750")},
			},
		},
	}

	// No native/token transfers and no account data at all, so A and B both
	// fail and the declared swap event must carry the trade.
	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.True(t, tr.SOLAmount.Equal(dec("3")))
}

func TestParse_WrappedSOLFoldedIntoNative(t *testing.T) {
	tx := EnhancedTransaction{
		Signature: "sig-wsol-1",
		Timestamp: 8000,
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: wallet, ToUserAccount: otherParty, Mint: "So11111111111111111111111111111111111111112", TokenAmount: dec("2")},
			{FromUserAccount: otherParty, ToUserAccount: wallet, Mint: mintFoo, TokenAmount: dec("100")},
		},
	}

	trades := Parse(tx, wallet)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, trademodel.SideBuy, tr.Side)
	assert.True(t, tr.SOLAmount.Equal(dec("2")))
}

func TestParse_NoSignalYieldsNoTrades(t *testing.T) {
	tx := EnhancedTransaction{Signature: "sig-empty-1", Timestamp: 9000}
	trades := Parse(tx, wallet)
	assert.Nil(t, trades)
}
