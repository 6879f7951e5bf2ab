package perr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsToSentinelWhenNoCause(t *testing.T) {
	err := New(ProviderRateLimited, "wallet1", "too many requests")
	assert.True(t, errors.Is(err, ErrProviderRateLimited))
	assert.True(t, RateLimited(err))
	assert.True(t, Retryable(err))
}

func TestError_UnwrapsToCauseWhenWrapped(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ProviderUnavailable, "wallet2", "upstream down", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, Retryable(err))
}

func TestRetryable_FalseForNonRetryableKinds(t *testing.T) {
	err := New(InvalidAddress, "bad", "not base58")
	assert.False(t, Retryable(err))
	assert.False(t, RateLimited(err))
}

func TestError_FormatsAddressWhenPresent(t *testing.T) {
	err := New(StoreConflict, "wallet3", "duplicate signature")
	assert.Contains(t, err.Error(), "wallet3")
}
