// Package classify labels companies with shop type and sales channel using
// an LLM chat-completions endpoint.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/registryscout/registryscout/internal/search"
)

const batchSize = 10

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	Logger     *slog.Logger
	HTTPClient *http.Client
}

// ClassifiedCompany is a company record with classification fields attached.
type ClassifiedCompany struct {
	search.CompanyRecord
	ShopType     string  `json:"shop_type"`
	Channel      string  `json:"channel"`
	AIConfidence float64 `json:"ai_confidence"`
}

// Available reports whether the classifier is configured.
func (c *Client) Available() bool {
	return c != nil && c.BaseURL != "" && c.Model != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// batchResult is one entry of the JSON array the model is asked to return.
type batchResult struct {
	Index      int     `json:"index"`
	ShopType   string  `json:"shop_type"`
	Channel    string  `json:"channel"`
	Confidence float64 `json:"confidence"`
}

// ClassifyBatch labels companies in batches. A failed batch marks its
// companies as "Error" and classification continues; only a cancelled
// context aborts the whole run.
func (c *Client) ClassifyBatch(ctx context.Context, companies []search.CompanyRecord, channelDefinitions string) ([]ClassifiedCompany, error) {
	out := make([]ClassifiedCompany, len(companies))
	for i, rec := range companies {
		out[i] = ClassifiedCompany{CompanyRecord: rec}
	}

	for start := 0; start < len(companies); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+batchSize, len(companies))
		batch := out[start:end]
		if err := c.classifyOne(ctx, batch, channelDefinitions); err != nil {
			c.logf("classification batch failed", slog.Int("start", start), slog.Any("error", err))
			for i := range batch {
				batch[i].ShopType = "Error"
				batch[i].Channel = "Error"
			}
		}
	}
	return out, nil
}

func (c *Client) classifyOne(ctx context.Context, batch []ClassifiedCompany, channelDefinitions string) error {
	prompt := buildPrompt(batch, channelDefinitions)
	content, err := c.chat(ctx, systemPrompt, prompt)
	if err != nil {
		return err
	}
	var results []batchResult
	if err := json.Unmarshal([]byte(stripFences(content)), &results); err != nil {
		return fmt.Errorf("parse classification response: %w", err)
	}
	for _, res := range results {
		if res.Index < 1 || res.Index > len(batch) {
			continue
		}
		entry := &batch[res.Index-1]
		entry.ShopType = res.ShopType
		entry.Channel = res.Channel
		entry.AIConfidence = res.Confidence
	}
	return nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Error != nil {
		return "", fmt.Errorf("llm error: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (c *Client) logf(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

const systemPrompt = "You classify UK companies into a shop type and a sales channel. " +
	"Respond with ONLY a JSON array, one object per company: " +
	`[{"index": 1, "shop_type": "...", "channel": "...", "confidence": 0.0}]`

func buildPrompt(batch []ClassifiedCompany, channelDefinitions string) string {
	var buf bytes.Buffer
	if channelDefinitions != "" {
		fmt.Fprintf(&buf, "Channel definitions:\n%s\n\n", channelDefinitions)
	}
	for i, company := range batch {
		fmt.Fprintf(&buf, "--- Company %d ---\n", i+1)
		writeCompanyContext(&buf, company.CompanyRecord)
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, "Classify all %d companies.\n", len(batch))
	return buf.String()
}

func writeCompanyContext(buf *bytes.Buffer, rec search.CompanyRecord) {
	fmt.Fprintf(buf, "Name: %s\n", rec.CompanyName)
	fmt.Fprintf(buf, "Number: %s\n", rec.CompanyNumber)
	fmt.Fprintf(buf, "Type: %s\n", rec.CompanyType)
	fmt.Fprintf(buf, "Status: %s\n", rec.CompanyStatus)
	fmt.Fprintf(buf, "SIC: %s (%s)\n", rec.SICCodes, rec.SICDescriptions)
	fmt.Fprintf(buf, "Address: %s\n", rec.FullAddress)
	if rec.DirectorsCount > 0 {
		fmt.Fprintf(buf, "Directors (%d): %s\n", rec.DirectorsCount, rec.DirectorsNames)
	}
	if rec.PSCCount > 0 {
		fmt.Fprintf(buf, "Owners (%d): %s\n", rec.PSCCount, rec.PSCNames)
	}
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
