package deblur_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unblurhq/unblur/pkg/deblur"
)

func newTestClient(t *testing.T, handler http.Handler) *deblur.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := deblur.NewClient(deblur.ClientConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
		PollInterval:   time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := deblur.NewClient(deblur.ClientConfig{})
	assert.ErrorIs(t, err, deblur.ErrMissingAPIKey)
}

func TestClient_Submit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns request id", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/deblurer", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-magicapi-key"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://cdn.example.com/img.jpg", body["image"])

			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req_1"})
		}))

		id, err := client.Submit(ctx, "https://cdn.example.com/img.jpg")
		require.NoError(t, err)
		assert.Equal(t, "req_1", id)
	})

	t.Run("rejects empty image url", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		_, err := client.Submit(ctx, "")
		assert.ErrorIs(t, err, deblur.ErrEmptyImageURL)
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		_, err := client.Submit(ctx, "https://cdn.example.com/img.jpg")
		assert.ErrorIs(t, err, deblur.ErrRequestFailed)
	})

	t.Run("rejects response without request id", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		_, err := client.Submit(ctx, "https://cdn.example.com/img.jpg")
		assert.ErrorIs(t, err, deblur.ErrRequestFailed)
	})
}

func TestClient_Result(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("decodes prediction", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/predictions/req_1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(deblur.Prediction{
				Status:    deblur.StatusSucceeded,
				OutputURL: "https://cdn.example.com/out.jpg",
			})
		}))

		p, err := client.Result(ctx, "req_1")
		require.NoError(t, err)
		assert.Equal(t, deblur.StatusSucceeded, p.Status)
		assert.Equal(t, "https://cdn.example.com/out.jpg", p.OutputURL)
		assert.Equal(t, "req_1", p.RequestID)
	})

	t.Run("rejects empty request id", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		_, err := client.Result(ctx, "")
		assert.ErrorIs(t, err, deblur.ErrEmptyRequestID)
	})
}

func TestClient_Await(t *testing.T) {
	t.Parallel()

	t.Run("polls until terminal", func(t *testing.T) {
		t.Parallel()
		var calls int
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			p := deblur.Prediction{Status: deblur.StatusProcessing}
			if calls >= 3 {
				p = deblur.Prediction{Status: deblur.StatusSucceeded, OutputURL: "https://cdn.example.com/out.jpg"}
			}
			_ = json.NewEncoder(w).Encode(p)
		}))

		p, err := client.Await(context.Background(), "req_1")
		require.NoError(t, err)
		assert.Equal(t, deblur.StatusSucceeded, p.Status)
		assert.GreaterOrEqual(t, calls, 3)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(deblur.Prediction{Status: deblur.StatusProcessing})
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Await(ctx, "req_1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
