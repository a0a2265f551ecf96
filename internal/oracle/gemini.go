package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is the production Oracle backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Oracle = (*Gemini)(nil)

// NewGemini creates a Gemini oracle for the given model name. Credentials are
// taken from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Infer sends the instructions and the page text as a single user turn and
// returns the model's raw text. A low temperature keeps extraction output as
// repeatable as the model allows; JSON response mode is requested but, as with
// everything the model returns, not relied upon.
func (g *Gemini) Infer(ctx context.Context, instructions, input string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: instructions},
				{Text: input},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("oracle: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("oracle: empty response from model")
	}
	return rawText, nil
}
