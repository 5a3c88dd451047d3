package netx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Voter     string `json:"voter"`
	Candidate string `json:"candidate"`
}

func TestDoJSON(t *testing.T) {
	t.Run("round trip with headers", func(t *testing.T) {
		var got payload
		var gotAuth, gotCT, gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotAuth = r.Header.Get("Authorization")
			gotCT = r.Header.Get("Content-Type")
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &got)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"success":true,"receipt":"abc"}`))
		}))
		defer ts.Close()

		var out struct {
			Success bool   `json:"success"`
			Receipt string `json:"receipt"`
		}
		h := http.Header{}
		h.Set("Authorization", "Bearer t")

		status, err := DoJSON(context.Background(), ts.Client(), http.MethodPost, ts.URL, h,
			payload{Voter: "alice", Candidate: "c1"}, &out)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "Bearer t", gotAuth)
		assert.Equal(t, "application/json", gotCT)
		assert.Equal(t, payload{Voter: "alice", Candidate: "c1"}, got)
		assert.True(t, out.Success)
		assert.Equal(t, "abc", out.Receipt)
	})

	t.Run("non-2xx still decoded", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"no match"}`))
		}))
		defer ts.Close()

		var out struct {
			Error string `json:"error"`
		}
		status, err := DoJSON(context.Background(), ts.Client(), http.MethodPost, ts.URL, nil, nil, &out)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "no match", out.Error)
	})

	t.Run("empty body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		var out map[string]any
		status, err := DoJSON(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, nil, &out)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, status)
		assert.Nil(t, out)
	})

	t.Run("invalid json", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer ts.Close()

		var out map[string]any
		status, err := DoJSON(context.Background(), ts.Client(), http.MethodGet, ts.URL, nil, nil, &out)
		require.ErrorIs(t, err, ErrDecode)
		assert.Equal(t, http.StatusBadGateway, status)
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		status, err := DoJSON(context.Background(), http.DefaultClient, http.MethodGet, ts.URL, nil, nil, nil)
		require.ErrorIs(t, err, ErrTransport)
		assert.Zero(t, status)
	})

	t.Run("context deadline", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := DoJSON(ctx, ts.Client(), http.MethodGet, ts.URL, nil, nil, nil)
		require.ErrorIs(t, err, ErrTransport)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}
