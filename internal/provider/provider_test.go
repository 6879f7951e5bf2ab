package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Signatures_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"signature":"sig1","slot":1,"blockTime":100}]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{
		BaseURL:                  srv.URL,
		RetryMaxAttempts:         3,
		RetryBaseDelay:           10 * time.Millisecond,
		RetryRateLimitMultiplier: 1.0,
	}, zerolog.Nop())

	sigs, err := client.Signatures(context.Background(), "wallet1", SignaturesParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "sig1", sigs[0].Signature)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Signatures_NonRetryableFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{
		BaseURL:          srv.URL,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   10 * time.Millisecond,
	}, zerolog.Nop())

	_, err := client.Signatures(context.Background(), "wallet1", SignaturesParams{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Enhance_RejectsOversizedBatch(t *testing.T) {
	client := NewHTTPClient(Config{BaseURL: "http://unused.invalid"}, zerolog.Nop())
	sigs := make([]string, 101)
	_, err := client.Enhance(context.Background(), sigs)
	require.Error(t, err)
}
