package ksef_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/config"
	"farmbooks/internal/exchange/ksef"
	"farmbooks/internal/port"
)

func newTestClient(baseURL string) *ksef.Client {
	return ksef.NewClient(&config.ExchangeConfig{
		BaseURL:  baseURL,
		Token:    "test-token",
		PageSize: 50,
	})
}

func TestFetchBatchDecodesPage(t *testing.T) {
	xmlPayload := []byte("<Faktura><Fa><P_2>FV/1</P_2></Fa></Faktura>")
	since := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query/invoices", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-08-27T12:00:00Z", r.URL.Query().Get("since"))
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		assert.Empty(t, r.URL.Query().Get("cursor"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"invoices": [
				{"ksefNumber": "KSEF-2026-0001", "issuedAt": "2026-08-27T14:30:00Z", "invoiceXml": %q}
			],
			"nextCursor": "abc123",
			"hasMore": true
		}`, base64.StdEncoding.EncodeToString(xmlPayload))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).FetchBatch(context.Background(), since, "")

	require.NoError(t, err)
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "KSEF-2026-0001", out.Documents[0].KSeFNumber)
	assert.Equal(t, time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC), out.Documents[0].IssuedAt.UTC())
	assert.Equal(t, xmlPayload, out.Documents[0].XML)
	assert.Equal(t, "abc123", out.NextCursor)
	assert.True(t, out.HasMore)
}

func TestFetchBatchPassesCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{"invoices": [], "hasMore": false}`)
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).FetchBatch(context.Background(), time.Now(), "abc123")

	require.NoError(t, err)
	assert.Empty(t, out.Documents)
	assert.False(t, out.HasMore)
}

func TestFetchBatchTransientStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "exchange unavailable", status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchBatch(context.Background(), time.Now(), "")

			require.Error(t, err)
			assert.True(t, port.IsTransientExchangeError(err))
		})
	}
}

func TestFetchBatchClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchBatch(context.Background(), time.Now(), "")

	require.Error(t, err)
	assert.False(t, port.IsTransientExchangeError(err))
	assert.Contains(t, err.Error(), "status 401")
}

func TestFetchBatchConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).FetchBatch(context.Background(), time.Now(), "")

	require.Error(t, err)
	assert.True(t, port.IsTransientExchangeError(err))
}

func TestFetchBatchRejectsBadPayloadEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"invoices": [{"ksefNumber": "K-1", "invoiceXml": "not-base64!!"}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchBatch(context.Background(), time.Now(), "")

	require.Error(t, err)
	assert.False(t, port.IsTransientExchangeError(err))
	assert.Contains(t, err.Error(), "K-1")
}
