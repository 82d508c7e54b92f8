package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, status int, reply string) (*httptest.Server, *generateRequest) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": reply}}},
			}},
		}
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestClient(t *testing.T, endpoint string) *GeminiClient {
	c, err := NewGeminiClient(Config{APIKey: "test-key", Model: "gemini-test", Endpoint: endpoint}, &logger.EmptyLogger{})
	require.NoError(t, err)
	return c
}

func TestScore(t *testing.T) {
	srv, got := geminiServer(t, http.StatusOK, "```json\n{\"score\": 82.4, \"message\": \"Beaming!\", \"hasFace\": true}\n```")
	c := newTestClient(t, srv.URL+"/")

	image := []byte{0xff, 0xd8, 0xff}
	result, err := c.Score(context.Background(), image, "")
	require.NoError(t, err)
	assert.Equal(t, SmileResult{Score: 82, Message: "Beaming!", HasFace: true}, result)

	require.Len(t, got.Contents, 1)
	parts := got.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "smile detection AI")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), parts[1].InlineData.Data)
}

func TestScoreFallsBack(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusTooManyRequests, "")
		result, err := newTestClient(t, srv.URL).Score(context.Background(), []byte{1}, "image/png")
		require.NoError(t, err)
		assert.Equal(t, FallbackResult, result)
	})

	t.Run("not json", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusOK, "I think they are smiling")
		result, err := newTestClient(t, srv.URL).Score(context.Background(), []byte{1}, "image/png")
		require.NoError(t, err)
		assert.Equal(t, FallbackResult, result)
	})
}

func TestScoreRequiresImage(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Score(context.Background(), nil, "image/jpeg")
	assert.Error(t, err)
}

func TestScoreHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv.URL).Score(ctx, []byte{1}, "image/jpeg")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMissingAPIKey(t *testing.T) {
	_, err := NewGeminiClient(Config{}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    SmileResult
		wantErr bool
	}{
		{name: "plain", text: `{"score": 75, "message": "Nice", "hasFace": true}`, want: SmileResult{75, "Nice", true}},
		{name: "fenced without language", text: "```\n{\"score\": 50, \"message\": \"ok\", \"hasFace\": true}\n```", want: SmileResult{50, "ok", true}},
		{name: "clamped high", text: `{"score": 140, "message": "", "hasFace": true}`, want: SmileResult{100, "", true}},
		{name: "clamped low", text: `{"score": -3, "message": "", "hasFace": true}`, want: SmileResult{0, "", true}},
		{name: "rounded", text: `{"score": 74.5, "message": "", "hasFace": true}`, want: SmileResult{75, "", true}},
		{name: "no face", text: `{"score": 0, "message": "No face detected!", "hasFace": false}`, want: SmileResult{0, "No face detected!", false}},
		{name: "missing score", text: `{"message": "hm"}`, wantErr: true},
		{name: "garbage", text: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResult(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
