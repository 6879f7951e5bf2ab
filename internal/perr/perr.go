// Package perr defines the typed error kinds of the analytics pipeline
// as sentinel-wrapped values usable with errors.Is/As.
package perr

import (
	"errors"
	"fmt"
)

// Kind is one of the typed error kinds surfaced across the pipeline.
type Kind string

const (
	InvalidAddress      Kind = "invalid_address"
	ProviderUnavailable Kind = "provider_unavailable"
	ProviderRateLimited Kind = "provider_rate_limited"
	ProviderTimeout     Kind = "provider_timeout"
	ProviderMalformed   Kind = "provider_malformed"
	ParseEmpty          Kind = "parse_empty"
	StoreConflict       Kind = "store_conflict"
	StoreCorrupt        Kind = "store_corrupt"
	Cancelled           Kind = "cancelled"
)

// sentinels let callers do errors.Is(err, perr.ErrProviderRateLimited).
var (
	ErrInvalidAddress      = errors.New(string(InvalidAddress))
	ErrProviderUnavailable = errors.New(string(ProviderUnavailable))
	ErrProviderRateLimited = errors.New(string(ProviderRateLimited))
	ErrProviderTimeout     = errors.New(string(ProviderTimeout))
	ErrProviderMalformed   = errors.New(string(ProviderMalformed))
	ErrParseEmpty          = errors.New(string(ParseEmpty))
	ErrStoreConflict       = errors.New(string(StoreConflict))
	ErrStoreCorrupt        = errors.New(string(StoreCorrupt))
	ErrCancelled           = errors.New(string(Cancelled))
)

var sentinelByKind = map[Kind]error{
	InvalidAddress:      ErrInvalidAddress,
	ProviderUnavailable: ErrProviderUnavailable,
	ProviderRateLimited: ErrProviderRateLimited,
	ProviderTimeout:     ErrProviderTimeout,
	ProviderMalformed:   ErrProviderMalformed,
	ParseEmpty:          ErrParseEmpty,
	StoreConflict:       ErrStoreConflict,
	StoreCorrupt:        ErrStoreCorrupt,
	Cancelled:           ErrCancelled,
}

// Error is a user-visible pipeline error carrying a kind, message, and the
// offending wallet address.
type Error struct {
	Kind    Kind
	Address string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s: %s (address=%s)", e.Kind, e.Message, e.Address)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return sentinelByKind[e.Kind]
}

// Is matches the sentinel for e's kind, so errors.Is(err, ErrX) holds
// whether or not a cause is wrapped.
func (e *Error) Is(target error) bool {
	return target == sentinelByKind[e.Kind]
}

// New builds an *Error for the given kind/address/message.
func New(kind Kind, address, message string) *Error {
	return &Error{Kind: kind, Address: address, Message: message}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, address, message string, cause error) *Error {
	return &Error{Kind: kind, Address: address, Message: message, Cause: cause}
}

// Retryable reports whether the pipeline's retry budget
// applies to this error kind: ProviderUnavailable, ProviderTimeout, and
// ProviderRateLimited are recovered within the coordinator's retry budget.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrProviderTimeout) ||
		errors.Is(err, ErrProviderRateLimited)
}

// RateLimited reports whether err represents an HTTP 429 / explicit
// rate-limit response, which uses a larger backoff multiplier.
func RateLimited(err error) bool {
	return errors.Is(err, ErrProviderRateLimited)
}
