package nodes

import (
	"context"
	"fmt"
	"io"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// ImageGenerationInput are the bound inputs of the image generation node.
type ImageGenerationInput struct {
	Prompt     string `mapstructure:"prompt"`
	Size       string `mapstructure:"size"`
	Quality    string `mapstructure:"quality"`
	Style      string `mapstructure:"style"`
	OutputFile string `mapstructure:"output_file"`
	ConfigID   string `mapstructure:"llm_config_id"`
}

// ImageGenerationDescriptor declares the image generation node.
var ImageGenerationDescriptor = node.Descriptor{
	Name:          "image_generation",
	Title:         "AI Image Generation",
	Description:   "Generate images from text descriptions using OpenAI's DALL-E models",
	Category:      category,
	Icon:          "🎨",
	FailurePrefix: "Image generation",
	Inputs: []node.Param{
		{
			Name:        "prompt",
			Label:       "Prompt",
			Description: "Text description of the image you want to generate",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Required:    true,
		},
		{
			Name:        "size",
			Label:       "Image Size",
			Description: "The size of the generated image",
			Type:        node.TypeString,
			Required:    true,
			Default:     "1024x1024",
			Choices:     []string{"1024x1024", "1792x1024", "1024x1792"},
		},
		{
			Name:        "quality",
			Label:       "Image Quality",
			Description: "The quality of the generated image",
			Type:        node.TypeString,
			Default:     "standard",
			Choices:     []string{"standard", "hd"},
		},
		{
			Name:        "style",
			Label:       "Image Style",
			Description: "The style of the generated image",
			Type:        node.TypeString,
			Default:     "vivid",
			Choices:     []string{"vivid", "natural"},
		},
		{
			Name:        "output_file",
			Label:       "Output File",
			Description: "Path to save the generated image",
			Type:        node.TypeString,
			Widget:      node.WidgetFile,
			Required:    true,
			Default:     "output.png",
		},
		configIDParam,
	},
	Outputs: []node.Output{
		{
			Name:        "image_path",
			Label:       "Image File Path",
			Description: "Path to the generated image file",
			Type:        node.TypeString,
		},
	},
}

// ImageGeneration returns the image generation node.
func ImageGeneration(d Deps) node.Node {
	return node.New(ImageGenerationDescriptor, func(ctx context.Context, in ImageGenerationInput, log node.Logger) (node.Outputs, error) {
		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}
		if err := ensureDir(in.OutputFile); err != nil {
			return nil, err
		}

		log.Info("Sending request to DALL-E model")
		img, err := client.GenerateImage(ctx, openaiapi.ImageRequest{
			Prompt:  in.Prompt,
			Size:    in.Size,
			Quality: in.Quality,
			Style:   in.Style,
		})
		if err != nil {
			return nil, err
		}

		err = writeOutput(in.OutputFile, func(w io.Writer) error {
			return client.Download(ctx, img.URL, w)
		})
		if err != nil {
			return nil, err
		}
		log.Info(fmt.Sprintf("Successfully saved image to %s", in.OutputFile))

		return node.Outputs{"image_path": in.OutputFile}, nil
	})
}
