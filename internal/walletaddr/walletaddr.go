// Package walletaddr validates tracked wallet addresses as well-formed
// Solana public keys before they enter the ingestion pipeline.
package walletaddr

import (
	"github.com/gagliardetto/solana-go"

	"github.com/shlinklfo/walletanalytics/internal/perr"
)

// Validate parses address as a base58 Solana public key, returning a
// perr.Error with kind InvalidAddress on failure.
func Validate(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return perr.Wrap(perr.InvalidAddress, address, "not a valid Solana address", err)
	}
	return nil
}
