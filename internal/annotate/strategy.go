package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/xoptymiz/xoptymiz/internal/config"
	"github.com/xoptymiz/xoptymiz/internal/models"
)

// Strategy produces entity observations for a text. Implementations may
// call external services; any failure is recovered by the annotator's local
// fallback, so a Strategy never needs to retry.
type Strategy interface {
	Infer(ctx context.Context, text string) ([]models.Entity, error)
}

// promptBudget caps how much text is sent to the model.
const promptBudget = 4000

const inferenceTemperature = 0.2

const extractionSystemPrompt = `You are an entity extraction engine. Extract the named entities from the text.

Respond with ONLY a JSON array, no prose and no code fences. Each element:
{
  "text": "entity name as it appears",
  "type": "PERSON|ORGANIZATION|LOCATION|CONCEPT|TECHNOLOGY|PRODUCT|EVENT|OTHER",
  "importance": 1-10,
  "description": "one short sentence",
  "aliases": ["alternative names"],
  "confidence": 0.0-1.0
}

Guidelines:
- importance reflects how central the entity is to the text
- only include entities actually present in the text
- use OTHER when no other type fits`

// LLMStrategy runs primary inference through a provider-switchable chat
// model.
type LLMStrategy struct {
	llm       llms.Model
	modelName string
}

// NewLLMStrategy creates the model named by the configuration.
func NewLLMStrategy(cfg config.Config) (*LLMStrategy, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &LLMStrategy{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// Model returns the configured model name.
func (s *LLMStrategy) Model() string {
	return s.modelName
}

func (s *LLMStrategy) Infer(ctx context.Context, text string) ([]models.Entity, error) {
	text = truncateToBudget(text)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, extractionSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	resp, err := s.llm.GenerateContent(ctx, messages, llms.WithTemperature(inferenceTemperature))
	if err != nil {
		return nil, fmt.Errorf("generate entities: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrAnnotationParse)
	}

	return parseEntityJSON(resp.Choices[0].Content)
}

// truncateToBudget cuts the prompt text at the budget, backing the cut off
// to a rune boundary so a multi-byte character is never split.
func truncateToBudget(text string) string {
	if len(text) <= promptBudget {
		return text
	}
	cut := promptBudget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// wireEntity is the strict JSON schema the model must produce.
type wireEntity struct {
	Text        string   `json:"text"`
	Type        string   `json:"type"`
	Importance  int      `json:"importance"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
	Confidence  float64  `json:"confidence"`
}

// parseEntityJSON decodes a strict-JSON entity array, tolerating a fenced
// code block around it. Anything else fails with ErrAnnotationParse.
func parseEntityJSON(raw string) ([]models.Entity, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var wire []wireEntity
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnnotationParse, err)
	}

	entities := make([]models.Entity, 0, len(wire))
	for _, w := range wire {
		if strings.TrimSpace(w.Text) == "" {
			return nil, fmt.Errorf("%w: entity with empty text", ErrAnnotationParse)
		}
		e := models.NewEntity(w.Text, models.ParseEntityType(w.Type), w.Importance, w.Confidence)
		e.Description = strings.TrimSpace(w.Description)
		e.Aliases = w.Aliases
		entities = append(entities, e)
	}
	return entities, nil
}
