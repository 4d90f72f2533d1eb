package prep

import (
	"context"
	"fmt"
	"strings"

	"menuops/internal/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// TalkingPointWriter proposes talking points for dishes that have none
type TalkingPointWriter interface {
	SuggestTalkingPoints(ctx context.Context, item models.MenuItem, recipe *models.Recipe) ([]string, error)
}

// LLMWriter asks a language model for short server talking points
type LLMWriter struct {
	model     llms.Model
	maxPoints int
}

// NewLLMWriter wraps a model
func NewLLMWriter(model llms.Model) *LLMWriter {
	return &LLMWriter{model: model, maxPoints: 3}
}

// NewOpenAIWriter builds a writer on the OpenAI provider. It returns nil
// without error when no API key is configured.
func NewOpenAIWriter(model, apiKey string) (*LLMWriter, error) {
	if apiKey == "" {
		return nil, nil
	}
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return NewLLMWriter(llm), nil
}

func (w *LLMWriter) prompt(item models.MenuItem, recipe *models.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You brief restaurant servers before service. Write at most %d short talking points, one per line, no numbering, for this dish.\n", w.maxPoints)
	fmt.Fprintf(&b, "Dish: %s\n", item.DisplayName())
	if item.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", item.Category)
	}
	if recipe != nil {
		if recipe.Cuisine != "" {
			fmt.Fprintf(&b, "Cuisine: %s\n", recipe.Cuisine)
		}
		var names []string
		for _, ing := range recipe.Ingredients {
			names = append(names, ing.Name)
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(names, ", "))
		}
	}
	if len(item.Allergens) > 0 {
		fmt.Fprintf(&b, "Allergens: %s\n", strings.Join(item.Allergens, ", "))
	}
	return b.String()
}

// SuggestTalkingPoints implements TalkingPointWriter
func (w *LLMWriter) SuggestTalkingPoints(ctx context.Context, item models.MenuItem, recipe *models.Recipe) ([]string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, w.model, w.prompt(item, recipe), llms.WithTemperature(0.4))
	if err != nil {
		return nil, fmt.Errorf("suggest talking points for %s: %w", item.ID, err)
	}
	var points []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) == w.maxPoints {
			break
		}
	}
	return points, nil
}
