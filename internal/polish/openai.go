package polish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"go.uber.org/zap"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"

	// maxPolishOutputTokens bounds the rewrite; replies are a few
	// short paragraphs plus bullets.
	maxPolishOutputTokens = 1000

	maxAttempts = 3
)

// Waits between retries, indexed by attempt. Rate limits back off
// longer than transient server errors.
var (
	rateLimitWaits   = []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}
	serverErrorWaits = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}
)

// OpenAI polishes drafts through the OpenAI Responses API.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAI builds an OpenAI polisher. model may be empty to use the
// default.
func NewOpenAI(apiKey, model string, logger *zap.Logger) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model, logger: logger}
}

// Name identifies the provider in logs.
func (o *OpenAI) Name() string { return "openai" }

// Available reports whether the client was constructed with a key.
func (o *OpenAI) Available() bool { return o.client != nil }

// Polish rewrites the draft, preserving its bullet lines. Rate limits
// and transient server errors are retried a bounded number of times.
func (o *OpenAI) Polish(ctx context.Context, draft string, hint Hint) (string, error) {
	if !o.Available() {
		return "", fmt.Errorf("openai polisher not configured")
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(maxPolishOutputTokens),
		Instructions:    openai.String(rewriteInstructions(hint)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(draft, responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		return "", fmt.Errorf("polishing with openai: %w", err)
	}
	out, err := validate(resp.OutputText())
	if err != nil {
		return "", fmt.Errorf("polishing with openai: %w", err)
	}
	return out, nil
}

func (o *OpenAI) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := o.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var wait time.Duration
		switch {
		case isRateLimitError(err):
			wait = rateLimitWaits[attempt]
		case isServerError(err):
			wait = serverErrorWaits[attempt]
		default:
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		o.logger.Debug("openai call failed, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

