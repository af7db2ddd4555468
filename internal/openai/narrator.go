// Package openai turns a finished PCA into a short plain-language commentary.
package openai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"stockTrendPCA/internal/pca"
)

const systemPrompt = `You are a concise equity analyst explaining a principal component analysis of daily stock returns to a retail investor.

Your response must follow this exact structure:

**Main Trend:**
[One or two sentences on what the first component says about how the basket moves together]

**Drivers:**
[Which stocks load most heavily on the main trend, and whether any move against it]

**Caveats:**
[Short window, few assets, or a solver that did not converge, when relevant]

Guidelines:
- Use only the numbers given; do not invent prices or news
- No links, no trading advice
- Keep it under 150 words`

type Narrator struct {
	cli   oa.Client
	model string
}

// NewNarrator builds a narrator for apiKey. Extra options, such as a base URL,
// are passed through to the client.
func NewNarrator(apiKey string, opts ...option.RequestOption) *Narrator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Narrator{cli: oa.NewClient(opts...), model: "gpt-4o-mini"}
}

// Narrate explains a PCA summary for the given symbols. loadings is the
// leading eigenvector in symbol order.
func (n *Narrator) Narrate(ctx context.Context, window string, symbols []string, loadings []float64, s pca.Summary) (string, error) {
	resp, err := n.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: n.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(buildPrompt(window, symbols, loadings, s)),
		},
		MaxTokens: oa.Int(400),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return sanitize(resp.Choices[0].Message.Content), nil
}

func buildPrompt(window string, symbols []string, loadings []float64, s pca.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Window: %s\n", window)
	fmt.Fprintf(&b, "Assets: %s\n", strings.Join(symbols, ", "))
	b.WriteString("First component loadings:\n")
	for i, sym := range symbols {
		if i < len(loadings) {
			fmt.Fprintf(&b, "- %s: %+.3f\n", sym, loadings[i])
		}
	}
	fmt.Fprintf(&b, "Variance explained by first component: %.1f%%\n", s.VarianceExplained)
	fmt.Fprintf(&b, "Largest positive loading: %s\n", s.MainTrendAsset)
	fmt.Fprintf(&b, "Largest absolute loading: %s\n", s.MaxLoadingAsset)
	if !s.Converged {
		fmt.Fprintf(&b, "Note: the eigen solver stopped after %d iterations without fully converging.\n", s.Iterations)
	}
	return b.String()
}

var reURL = regexp.MustCompile(`https?://\S+`)

func sanitize(text string) string {
	return strings.TrimSpace(reURL.ReplaceAllString(text, ""))
}
