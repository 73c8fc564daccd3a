package adapters

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/resilience"
)

// GenAITextGenerator implements TextGenerator on top of
// google.golang.org/genai, generalising
// kube-rca-backend/internal/client/genai.go's client construction and
// EmbedContent call shape to also cover prompt-based playbook-step
// generation (spec.md section 4.7's "generated" resolution tier).
type GenAITextGenerator struct {
	client        *genai.Client
	embedModel    string
	generateModel string
	exec          *resilience.Executor
}

// NewGenAITextGenerator builds a client from an API key; embedModel and
// generateModel name the two model IDs to call.
func NewGenAITextGenerator(ctx context.Context, apiKey, embedModel, generateModel string) (*GenAITextGenerator, error) {
	if apiKey == "" {
		return nil, errs.New("textgen.Connect", errs.ValidationFailed, "missing API key", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, errs.New("textgen.Connect", errs.UpstreamUnavailable, "create genai client", err)
	}
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}
	if generateModel == "" {
		generateModel = "gemini-1.5-flash"
	}
	return &GenAITextGenerator{
		client:        client,
		embedModel:    embedModel,
		generateModel: generateModel,
		exec:          resilience.NewExecutor("text-generator"),
	}, nil
}

// Embed returns the embedding vector for a block of text.
func (g *GenAITextGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := g.exec.Execute(ctx, func(ctx context.Context) error {
		contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
		res, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
		if err != nil {
			return errs.New("textgen.Embed", errs.UpstreamUnavailable, "embed content", err)
		}
		if res == nil || len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
			return errs.New("textgen.Embed", errs.UpstreamUnavailable, "empty embedding result", nil)
		}
		vector = res.Embeddings[0].Values
		return nil
	})
	return vector, err
}

// Generate produces free text from a prompt, used to draft a playbook
// when no known or historically-successful playbook exists for a
// pattern (spec.md section 4.7).
func (g *GenAITextGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var text string
	err := g.exec.Execute(ctx, func(ctx context.Context) error {
		model := opts.Model
		if model == "" {
			model = g.generateModel
		}
		contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
		cfg := &genai.GenerateContentConfig{}
		if opts.Temperature > 0 {
			temp := float32(opts.Temperature)
			cfg.Temperature = &temp
		}
		if opts.MaxTokens > 0 {
			cfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
		if len(opts.Stop) > 0 {
			cfg.StopSequences = opts.Stop
		}

		res, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return errs.New("textgen.Generate", errs.UpstreamUnavailable, "generate content", err)
		}
		if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
			return errs.New("textgen.Generate", errs.UpstreamUnavailable, "empty generation result", nil)
		}
		part := res.Candidates[0].Content.Parts[0]
		if part.Text == "" {
			return errs.New("textgen.Generate", errs.UpstreamUnavailable, fmt.Sprintf("no text in candidate part for model %s", model), nil)
		}
		text = part.Text
		return nil
	})
	return text, err
}
