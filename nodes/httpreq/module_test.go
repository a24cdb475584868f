package httpreq

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte("pong"))
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}
	}))
	defer srv.Close()

	t.Run("defaults to GET", func(t *testing.T) {
		value, repr, err := buildRequest(context.Background(), map[string]any{"url": srv.URL})
		require.NoError(t, err)

		result, ok := value.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(http.StatusOK), result["status_code"])
		assert.Equal(t, "pong", result["body"])
		assert.Equal(t, "pong", repr)
	})

	t.Run("posts the body", func(t *testing.T) {
		value, _, err := buildRequest(context.Background(), map[string]any{
			"url":    srv.URL,
			"method": http.MethodPost,
			"body":   "payload",
		})
		require.NoError(t, err)

		result := value.(map[string]any)
		assert.Equal(t, float64(http.StatusCreated), result["status_code"])
		assert.Equal(t, "payload", result["body"])
	})

	t.Run("missing url is an error", func(t *testing.T) {
		_, _, err := buildRequest(context.Background(), map[string]any{})
		assert.ErrorContains(t, err, "requires a url")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := buildRequest(ctx, map[string]any{"url": srv.URL})
		assert.Error(t, err)
	})
}
