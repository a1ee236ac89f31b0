package nodes

import (
	"context"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// ImageRecognitionInput are the bound inputs of the image recognition node.
type ImageRecognitionInput struct {
	ImagePath string `mapstructure:"image_path"`
	Prompt    string `mapstructure:"prompt"`
	ConfigID  string `mapstructure:"llm_config_id"`
}

// ImageRecognitionDescriptor declares the image recognition node.
var ImageRecognitionDescriptor = node.Descriptor{
	Name:          "image_recognition",
	Title:         "AI Image Recognition",
	Description:   "Use AI to analyze and describe image content using various LLM models",
	Category:      category,
	Icon:          "🖼️",
	FailurePrefix: "Image recognition",
	Inputs: []node.Param{
		{
			Name:        "image_path",
			Label:       "Image Path",
			Description: "Path or URL to the image to analyze",
			Type:        node.TypeString,
			Widget:      node.WidgetFile,
			Required:    true,
		},
		{
			Name:        "prompt",
			Label:       "Analysis Prompt",
			Description: "Question or instruction for analyzing the image",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Required:    true,
			Default:     "What is in this image?",
		},
		{
			Name:        "llm_config_id",
			Label:       "LLM Configuration",
			Description: "ID of the LLM configuration to use",
			Type:        node.TypeString,
			Widget:      node.WidgetLLM,
			Required:    true,
		},
	},
	Outputs: []node.Output{
		{
			Name:        "description",
			Label:       "Image Description",
			Description: "AI-generated description or analysis of the image",
			Type:        node.TypeString,
		},
	},
}

// ImageRecognition returns the image recognition node.
func ImageRecognition(d Deps) node.Node {
	return node.New(ImageRecognitionDescriptor, func(ctx context.Context, in ImageRecognitionInput, log node.Logger) (node.Outputs, error) {
		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}

		imageURL, err := ImageURL(in.ImagePath)
		if err != nil {
			return nil, err
		}

		log.Info("Sending request to AI model")
		out, err := client.DescribeImage(ctx, openaiapi.VisionRequest{
			Prompt:   in.Prompt,
			ImageURL: imageURL,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Successfully received AI analysis")

		return node.Outputs{"description": out.OutputText}, nil
	})
}
