package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/labelminer/labelminer/internal/model"
)

// systemPrompt fixes the four-key JSON output contract. The model is told to
// emit nothing but the object; stripFences handles the markdown wrapper it
// sometimes adds anyway.
const systemPrompt = `You are an expert at reading dietary supplement labels.

Analyze the Supplement Facts image and extract:

1. INGREDIENTS: every active ingredient from the Supplement Facts table
2. DOSAGES: the exact dosage with units for each ingredient
3. AGE GROUP: the stated age recommendation (2+, 4+, 6+ and so on)
4. FORM: the product form (Gummies, Chewable, Tablets, Capsules, Liquid, Drops, Powder, Softgels)

Return the result STRICTLY as JSON:
{
  "ingredients": "all ingredients, comma separated",
  "dosages": "pairs of 'Ingredient: amount unit', semicolon separated",
  "age_group": "age group in N+ format",
  "form": "the exact product form"
}

IMPORTANT:
- If a field is not found, use an empty string ""
- Include EVERY ingredient from the Supplement Facts table
- Keep exact dosages with units (mg, mcg, IU, etc.)
- Do NOT add commentary, ONLY the JSON object`

// Client invokes a vision-capable chat model against a label image.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a vision client from configuration.
func NewClient(cfg model.VisionConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4o
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	return &Client{
		api:       openai.NewClientWithConfig(clientConfig),
		model:     m,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
	}
}

// AnalyzeLabel submits the image with brand/title context and parses the
// constrained JSON response. Missing keys come back as empty strings; a
// response that does not parse as JSON is an error for the caller to absorb.
func (c *Client) AnalyzeLabel(ctx context.Context, imageBytes []byte, title, brand string) (model.ExtractionResult, error) {
	timeout := c.timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(imageBytes)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf("Analyze the Supplement Facts for: %s %s", brand, title),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:image/jpeg;base64," + encoded,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		MaxTokens: c.maxTokens,
		// A literal zero would be dropped by omitempty and the API would fall
		// back to its default sampling; the smallest serializable value pins
		// the model to its most deterministic setting.
		Temperature: math.SmallestNonzeroFloat32,
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("vision API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ExtractionResult{}, fmt.Errorf("vision API: empty response")
	}

	content := stripFences(resp.Choices[0].Message.Content)

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("parse vision response: %w", err)
	}
	return result, nil
}

// stripFences removes an optional markdown code fence wrapped around the
// JSON payload.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
