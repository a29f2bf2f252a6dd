// Package probe verifies that an Anthropic-compatible endpoint accepts a
// credential by sending the cheapest possible message request.
package probe

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/imbios/cohe/internal/ports"
)

const (
	probeTimeout   = 15 * time.Second
	probeMessage   = "Hi"
	probeMaxTokens = 5
)

type Tester struct {
	// extraOptions lets tests point the SDK at a local server.
	extraOptions []option.RequestOption
}

var _ ports.ConnectionTester = (*Tester)(nil)

func New(opts ...option.RequestOption) *Tester {
	return &Tester{extraOptions: opts}
}

// Test sends a minimal message and reports whether the endpoint answered
// with a well-formed response. Every failure mode collapses to false.
func (t *Tester) Test(ctx context.Context, apiKey, baseURL, model string) bool {
	if apiKey == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, t.extraOptions...)

	client := anthropic.NewClient(opts...)
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: probeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(probeMessage)),
		},
	})
	if err != nil {
		return false
	}

	return message.ID != ""
}
