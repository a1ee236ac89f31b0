package nodes

import (
	"context"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// TextGenerationInput are the bound inputs of the text generation node.
type TextGenerationInput struct {
	Prompt       string  `mapstructure:"prompt"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	MaxTokens    int64   `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	ConfigID     string  `mapstructure:"llm_config_id"`
}

// TextGenerationDescriptor declares the text generation node.
var TextGenerationDescriptor = node.Descriptor{
	Name:          "text_generation",
	Title:         "AI Text Generation",
	Description:   "Generate text using OpenAI's language models with chat completion API",
	Category:      category,
	Icon:          "📝",
	FailurePrefix: "Text generation",
	Inputs: []node.Param{
		{
			Name:        "prompt",
			Label:       "Prompt",
			Description: "The text prompt to generate content from",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Required:    true,
			Default:     "Write a creative story",
		},
		{
			Name:        "system_prompt",
			Label:       "System Prompt",
			Description: "Optional system message to set the behavior of the assistant",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Default:     "You are a helpful and creative assistant.",
		},
		{
			Name:        "max_tokens",
			Label:       "Maximum Length",
			Description: "Maximum number of tokens in the response",
			Type:        node.TypeInteger,
			Default:     1000,
			Minimum:     node.Bound(1),
			Maximum:     node.Bound(4000),
		},
		{
			Name:        "temperature",
			Label:       "Temperature",
			Description: "Controls randomness in the output (0.0-2.0)",
			Type:        node.TypeFloat,
			Default:     0.7,
			Minimum:     node.Bound(0),
			Maximum:     node.Bound(2),
		},
		configIDParam,
	},
	Outputs: []node.Output{
		{
			Name:        "generated_text",
			Label:       "Generated Text",
			Description: "The AI-generated text response",
			Type:        node.TypeString,
		},
	},
}

// TextGeneration returns the text generation node.
func TextGeneration(d Deps) node.Node {
	return node.New(TextGenerationDescriptor, func(ctx context.Context, in TextGenerationInput, log node.Logger) (node.Outputs, error) {
		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}

		log.Info("Sending request to AI model")
		out, err := client.Complete(ctx, openaiapi.CompletionRequest{
			System:      in.SystemPrompt,
			Prompt:      in.Prompt,
			MaxTokens:   in.MaxTokens,
			Temperature: &in.Temperature,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Successfully received AI response")

		return node.Outputs{"generated_text": out.OutputText}, nil
	})
}
