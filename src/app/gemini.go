package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type (
	GeminiClient struct {
		host   string
		model  string
		apiKey string
		client *http.Client
	}

	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}

	geminiContent struct {
		Parts []geminiPart `json:"parts"`
	}

	geminiPart struct {
		Text string `json:"text"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}
)

func NewGeminiClient(host, apiKey, model string, timeout time.Duration) *GeminiClient {
	tr := &http.Transport{
		MaxIdleConns:       10,
		IdleConnTimeout:    600 * time.Second,
		DisableCompression: true,
	}
	return &GeminiClient{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		apiKey: apiKey,
		client: &http.Client{Transport: tr, Timeout: timeout},
	}
}

// GenerateText sends prompt as a single-turn request and returns the first
// candidate's first text part.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("can not marshall gemini request: %v", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.host, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("can not prepare gemini request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("can not read gemini response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, raw)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("can not parse gemini response: %v", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("No response from Gemini")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
