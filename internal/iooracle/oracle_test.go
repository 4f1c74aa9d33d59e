package iooracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gntaxid/pkg/config"
	"github.com/gnames/gntaxid/pkg/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient builds a client against a test server with the retry
// and throttle delays shortened.
func testClient(t *testing.T, url string) *client {
	t.Helper()
	cfg := config.New(
		config.OptOracleAPIKey("test-key"),
		config.OptOracleBaseURL(url),
	)
	orc, err := New(cfg)
	require.NoError(t, err)

	res := orc.(*client)
	res.retryDelay = time.Millisecond
	res.requestInterval = 0
	return res
}

func writeAnswer(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{
				"role":    "assistant",
				"content": content,
			}},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.New())
	require.Error(t, err)

	_, err = New(config.New(config.OptOracleAPIKey("some-key")))
	require.NoError(t, err)
}

func TestConvertSuccess(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			err := json.NewDecoder(r.Body).Decode(&gotReq)
			assert.NoError(t, err)
			writeAnswer(w, `"Canis lupus."`)
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	got, err := c.Convert(context.Background(), "Grey Wolf", oracle.ToLatin)
	require.NoError(t, err)
	assert.Equal(t, "Canis lupus", got)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "glm-4.5", gotReq.Model)
	assert.Equal(t, 50, gotReq.MaxTokens)
	assert.InDelta(t, 0.1, gotReq.Temperature, 0.0001)
	assert.False(t, gotReq.Stream)
	require.NotNil(t, gotReq.Thinking)
	assert.Equal(t, "disabled", gotReq.Thinking.Type)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "Grey Wolf")
}

func TestConvertRetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeAnswer(w, "Felis catus")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	got, err := c.Convert(context.Background(), "domestic cat", oracle.ToLatin)
	require.NoError(t, err)
	assert.Equal(t, "Felis catus", got)
	assert.Equal(t, int32(3), hits.Load())
}

func TestConvertExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "Grey Wolf", oracle.ToLatin)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestConvertHardFailure(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "Grey Wolf", oracle.ToLatin)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "4xx is not retried")
}

func TestConvertEmptyAnswerRetries(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeAnswer(w, "")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "Grey Wolf", oracle.ToLatin)
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load(),
		"empty completions consume the retry budget")
}

func TestConvertUnrecognizable(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeAnswer(w, "unrecognizable")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "asdfgh", oracle.ToLatin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oracle.ErrUnrecognizable))
	assert.Equal(t, int32(1), hits.Load(),
		"definitive answers are not retried")
}

func TestConvertAmbiguousAnswer(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeAnswer(w, "Canis lupus or Canis latrans")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "wolf", oracle.ToLatin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oracle.ErrAmbiguousAnswer))
	assert.Equal(t, int32(1), hits.Load())
}

func TestConvertCache(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeAnswer(w, "Canis lupus")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := c.Convert(ctx, "Grey Wolf", oracle.ToLatin)
		require.NoError(t, err)
		assert.Equal(t, "Canis lupus", got)
	}
	assert.Equal(t, int32(1), hits.Load())

	// whitespace differences collapse into the same cache entry
	_, err := c.Convert(ctx, "  Grey   Wolf ", oracle.ToLatin)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// direction is part of the cache key
	_, err = c.Convert(ctx, "Grey Wolf", oracle.ToCommon)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestConvertEmptyName(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeAnswer(w, "Canis lupus")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Convert(context.Background(), "   ", oracle.ToLatin)
	require.Error(t, err)
	assert.Equal(t, int32(0), hits.Load())
}

func TestConvertCanceledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeAnswer(w, "Canis lupus")
		}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Convert(ctx, "Grey Wolf", oracle.ToLatin)
	require.Error(t, err)
}
