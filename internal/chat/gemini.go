package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/invision-app/backend/internal/logger"
)

const (
	generatePath = "/v1beta/models/gemini-2.0-flash:generateContent"

	// noModelResponse stands in when the upstream answers 2xx but the
	// expected candidate text is missing. Not an error.
	noModelResponse = "No response from model."
)

// GeminiClient calls the Google generative-language API over HTTPS. The
// API key travels as a query credential and must never appear in full in
// logs or error payloads.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewGeminiClient(baseURL, apiKey string, log *logger.Logger) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

type contentPart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends a single-turn content request and returns the first
// candidate's first text part.
func (c *GeminiClient) Generate(ctx context.Context, message string) (string, error) {
	payload := generateRequest{
		Contents: []generateContent{{Parts: []contentPart{{Text: message}}}},
	}
	body, _ := json.Marshal(payload)
	fullURL := c.baseURL + generatePath + "?key=" + url.QueryEscape(c.apiKey)

	// Log the request with the credential hidden.
	c.log.Infof("gemini request: %s%s?key=***", c.baseURL, generatePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %s", c.redact(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini api error: status %d: %s", resp.StatusCode, c.redact(string(b)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini decode: %w", err)
	}

	if len(out.Candidates) == 0 ||
		len(out.Candidates[0].Content.Parts) == 0 ||
		out.Candidates[0].Content.Parts[0].Text == "" {
		return noModelResponse, nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// redact strips the API key from upstream error text. Transport errors
// embed the full request URL, query string included.
func (c *GeminiClient) redact(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "***")
}
