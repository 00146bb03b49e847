package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

const (
	defaultGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel      = "google/gemini-2.5-flash"

	systemPrompt = "You are a professional financial advisor providing clear, actionable advice to help individuals and small businesses optimize their finances."

	msgRateLimited   = "Rate limit exceeded. Please try again later."
	msgQuotaExceeded = "Payment required. Please add credits to your account."
)

// Client sends financial summaries to an OpenAI-compatible chat completion
// gateway through go-openai.
type Client struct {
	APIKey   string
	Endpoint string
	Model    string

	HTTPClient *http.Client
}

// Input is the summary sent to the model. Breakdown is only used by the advanced prompt.
type Input struct {
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Investments decimal.Decimal
	Breakdown   map[string]decimal.Decimal
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:   strings.TrimSpace(env.GetEnv("LOVABLE_API_KEY", "")),
		Endpoint: strings.TrimSpace(env.GetEnv("AI_GATEWAY_URL", defaultGatewayURL)),
		Model:    strings.TrimSpace(env.GetEnv("AI_MODEL", DefaultModel)),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return fmt.Sprintf("$%.2f", f)
}

// BuildPrompt renders the basic or the advanced analysis request.
func BuildPrompt(in Input, advanced bool) string {
	net := in.Income.Sub(in.Expenses).Sub(in.Investments)

	if !advanced {
		return fmt.Sprintf(`As a financial advisor, provide a brief analysis of this financial data:

Income: %s
Expenses: %s
Net Balance: %s

Provide a short summary (3-4 sentences) with one key recommendation.`,
			money(in.Income), money(in.Expenses), money(net))
	}

	breakdown := make(map[string]float64, len(in.Breakdown))
	for k, v := range in.Breakdown {
		breakdown[k], _ = v.Float64()
	}
	var breakdownJSON bytes.Buffer
	enc := json.NewEncoder(&breakdownJSON)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(breakdown)

	return fmt.Sprintf(`As a financial advisor, analyze the following financial data and provide comprehensive actionable recommendations:

Income: %s
Expenses: %s (breakdown: %s)
Investments: %s
Net Balance: %s

Please provide:
1. Detailed assessment of the current financial situation
2. Specific recommendations to reduce expenses
3. Investment optimization suggestions
4. Budget allocation recommendations
5. Tax optimization strategies
6. Long-term financial planning advice
7. Key action items to improve financial health

Provide a comprehensive, detailed analysis.`,
		money(in.Income), money(in.Expenses), strings.TrimSpace(breakdownJSON.String()), money(in.Investments), money(net))
}

// Analyze returns the model's advice text.
func (c *Client) Analyze(ctx context.Context, in Input, advanced bool) (string, error) {
	if c.APIKey == "" {
		return "", apperr.External("LOVABLE_API_KEY is not configured", nil)
	}

	resp, err := c.chatClient().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(in, advanced)},
		},
	})
	if err != nil {
		return "", gatewayError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.External("ai gateway returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// chatClient points an OpenAI client at the gateway. Endpoint is the full
// chat completions URL; the client appends the path itself.
func (c *Client) chatClient() *openai.Client {
	cfg := openai.DefaultConfig(c.APIKey)
	cfg.BaseURL = strings.TrimSuffix(strings.TrimRight(c.Endpoint, "/"), "/chat/completions")
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

func gatewayError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case 0:
		return apperr.External("ai gateway request failed", err)
	case http.StatusTooManyRequests:
		return apperr.E(apperr.KindRateLimited, msgRateLimited, nil)
	case http.StatusPaymentRequired:
		return apperr.E(apperr.KindQuotaExceeded, msgQuotaExceeded, nil)
	default:
		log.Errorf("[Advisor] AI gateway error: status=%d: %v", status, err)
		return apperr.External(fmt.Sprintf("ai gateway error: status=%d", status), nil)
	}
}
