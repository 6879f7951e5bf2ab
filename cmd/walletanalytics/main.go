// Command walletanalytics is a thin CLI entrypoint wiring config, the
// persistence adapter, the provider client, and the sync coordinator: it
// runs one wallet through the ingestion → FIFO → profile pipeline and
// prints the resulting summary, profile, and follow score.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/shlinklfo/walletanalytics/internal/config"
	"github.com/shlinklfo/walletanalytics/internal/fifo"
	"github.com/shlinklfo/walletanalytics/internal/followsim"
	"github.com/shlinklfo/walletanalytics/internal/profiler"
	"github.com/shlinklfo/walletanalytics/internal/provider"
	"github.com/shlinklfo/walletanalytics/internal/statusbus"
	"github.com/shlinklfo/walletanalytics/internal/store"
	"github.com/shlinklfo/walletanalytics/internal/sync"
	"github.com/shlinklfo/walletanalytics/internal/walletaddr"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: walletanalytics <wallet-address> [--force]")
	}
	wallet := os.Args[1]
	forceRefresh := len(os.Args) > 2 && os.Args[2] == "--force"

	if err := walletaddr.Validate(wallet); err != nil {
		log.Fatal().Err(err).Msg("invalid wallet address")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	client := provider.NewHTTPClient(provider.Config{
		BaseURL:                  cfg.ProviderBaseURL,
		APIKey:                   cfg.ProviderAPIKey,
		RetryMaxAttempts:         cfg.RetryMaxAttempts,
		RetryBaseDelay:           cfg.RetryBaseDelay,
		RetryRateLimitMultiplier: cfg.RetryRateLimitMultiplier,
	}, log)

	bus := statusbus.New(statusbus.DefaultMailboxSize)
	sub := bus.Subscribe()
	go func() {
		for ev := range sub.Events {
			log.Info().Str("level", string(ev.Level)).Str("wallet", ev.Wallet).Msg(ev.Message)
		}
	}()

	coord := sync.New(st, client, bus, cfg)
	if err := coord.Sync(ctx, wallet, forceRefresh); err != nil {
		log.Error().Err(err).Msg("sync failed")
	}

	trades, err := st.TradesByWallet(ctx, wallet, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read trades")
	}

	summary := fifo.Summarize(wallet, trades, fifo.Timeframe30d, time.Now().Unix())
	fmt.Printf("30d realized pnl: %s SOL over %d unique tokens\n", summary.RealizedPnL, summary.UniqueTokens)

	launchTable, err := st.TokenLaunches(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load launch table")
	}
	launches := make(map[string]profiler.Launch, len(launchTable))
	for mint, l := range launchTable {
		launches[mint] = profiler.Launch{Signature: l.Signature, Timestamp: l.BlockTime, Slot: l.Slot}
	}
	profile := profiler.Build(wallet, trades, launches)
	fmt.Printf("tokens tracked: %d, round trip rate: %.2f, early exit rate: %.2f\n",
		profile.TokensTracked, profile.RoundTripRate, profile.EarlyExitRate)

	result := followsim.Simulate(wallet, trades, cfg.DefaultFollowDelaySeconds, followsim.SlippageModel(cfg.DefaultSlippageModel))
	if err := st.UpsertFollowScore(ctx, result.ToFollowScore()); err != nil {
		log.Error().Err(err).Msg("failed to persist follow score")
	}
	fmt.Printf("followability ratio: %s\n", result.FollowabilityRatio)

	sub.Unsubscribe()
}
