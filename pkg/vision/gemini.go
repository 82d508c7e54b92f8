// Package vision scores the smile in a selfie with the Gemini API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set, get one at https://aistudio.google.com/apikey")

const prompt = `You are a smile detection AI. Analyze this selfie image and rate the person's smile on a scale from 0 to 100.

Rules:
- 0 = no smile at all, frowning, or neutral face
- 50 = slight smile
- 75 = good genuine smile
- 100 = the biggest, most joyful smile possible

Respond ONLY with valid JSON in this exact format, no other text:
{"score": <number 0-100>, "message": "<short fun description of their smile>", "hasFace": <true/false>}

If no human face is detected in the image, respond with:
{"score": 0, "message": "No face detected! Please take a selfie with your face visible.", "hasFace": false}`

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// SmileResult is the score of one selfie
type SmileResult struct {
	Score   int64  `json:"score"`
	Message string `json:"message"`
	HasFace bool   `json:"hasFace"`
}

// FallbackResult is returned when the image could not be analyzed
var FallbackResult = SmileResult{
	Score:   0,
	Message: "Failed to analyze image. Please try again.",
	HasFace: false,
}

// Scorer scores the smile in an image
type Scorer interface {
	Score(ctx context.Context, image []byte, mimeType string) (SmileResult, error)
}

// Config holds the Gemini client settings
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	// RateLimit is in requests per second. Zero disables limiting.
	RateLimit float64
}

// GeminiClient scores selfies with a Gemini model
type GeminiClient struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewGeminiClient creates a client. The API key is required.
func NewGeminiClient(cfg Config, log logger.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log,
	}, nil
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Score rates the smile in the image. Failures of the API or of the reply
// yield FallbackResult without an error. Only a cancelled context or an empty
// image is returned as an error.
func (g *GeminiClient) Score(ctx context.Context, image []byte, mimeType string) (SmileResult, error) {
	if len(image) == 0 {
		return SmileResult{}, fmt.Errorf("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if err := g.limiter.Wait(ctx); err != nil {
		metrics.VisionRequests.WithLabelValues("rate_limited").Inc()
		return SmileResult{}, fmt.Errorf("vision rate limit: %w", err)
	}

	text, err := g.generate(ctx, image, mimeType)
	if err != nil {
		if ctx.Err() != nil {
			return SmileResult{}, ctx.Err()
		}
		metrics.VisionRequests.WithLabelValues("error").Inc()
		g.logger.Error("Gemini API error: %v", err)
		return FallbackResult, nil
	}

	result, err := parseResult(text)
	if err != nil {
		metrics.VisionRequests.WithLabelValues("unparsable").Inc()
		g.logger.Error("Failed to parse Gemini reply %q: %v", text, err)
		return FallbackResult, nil
	}

	metrics.VisionRequests.WithLabelValues("scored").Inc()
	g.logger.Debug("Smile scored %d (face: %t)", result.Score, result.HasFace)
	return result, nil
}

func (g *GeminiClient) generate(ctx context.Context, image []byte, mimeType string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{
		Role: "user",
		Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
		},
	}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %v", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.Endpoint, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generateContent: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			g.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// parseResult reads the JSON reply, optionally inside a code fence, and
// clamps the score to 0-100
func parseResult(text string) (SmileResult, error) {
	jsonStr := strings.TrimSpace(text)
	if m := fencedJSON.FindStringSubmatch(jsonStr); m != nil {
		jsonStr = strings.TrimSpace(m[1])
	}

	var raw struct {
		Score   *float64 `json:"score"`
		Message string   `json:"message"`
		HasFace bool     `json:"hasFace"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return SmileResult{}, err
	}
	if raw.Score == nil || math.IsNaN(*raw.Score) {
		return SmileResult{}, fmt.Errorf("reply has no score")
	}

	score := math.Max(0, math.Min(100, math.Round(*raw.Score)))
	return SmileResult{
		Score:   int64(score),
		Message: raw.Message,
		HasFace: raw.HasFace,
	}, nil
}
