package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// MaxFrames is the number of frame slots the video node declares.
const MaxFrames = 8

// VideoRecognitionInput are the bound inputs of the video recognition node.
type VideoRecognitionInput struct {
	Img1     string `mapstructure:"img1"`
	Img2     string `mapstructure:"img2"`
	Img3     string `mapstructure:"img3"`
	Img4     string `mapstructure:"img4"`
	Img5     string `mapstructure:"img5"`
	Img6     string `mapstructure:"img6"`
	Img7     string `mapstructure:"img7"`
	Img8     string `mapstructure:"img8"`
	Prompt   string `mapstructure:"prompt"`
	ConfigID string `mapstructure:"llm_config_id"`
}

// Frames returns the non-empty frame references in slot order.
func (in VideoRecognitionInput) Frames() []string {
	var frames []string
	for _, ref := range [MaxFrames]string{in.Img1, in.Img2, in.Img3, in.Img4, in.Img5, in.Img6, in.Img7, in.Img8} {
		if ref != "" {
			frames = append(frames, ref)
		}
	}
	return frames
}

var ordinals = [MaxFrames]string{"First", "Second", "Third", "Fourth", "Fifth", "Sixth", "Seventh", "Eighth"}

func frameParams() []node.Param {
	params := make([]node.Param, 0, MaxFrames)
	for i := range MaxFrames {
		params = append(params, node.Param{
			Name:        fmt.Sprintf("img%d", i+1),
			Label:       fmt.Sprintf("Image %d", i+1),
			Description: fmt.Sprintf("%s frame/image of the video", ordinals[i]),
			Type:        node.TypeString,
			Widget:      node.WidgetFile,
			Required:    i == 0,
			Default:     "",
		})
	}
	return params
}

// VideoRecognitionDescriptor declares the video recognition node.
var VideoRecognitionDescriptor = node.Descriptor{
	Name:          "video_recognition",
	Title:         "AI Video Recognition",
	Description:   "Use AI to analyze and describe video content using multiple frames",
	Category:      category,
	Icon:          "🎥",
	FailurePrefix: "Video recognition",
	Inputs: append(frameParams(),
		node.Param{
			Name:        "prompt",
			Label:       "Analysis Prompt",
			Description: "Question or instruction for analyzing the video frames",
			Type:        node.TypeString,
			Required:    true,
			Default:     "Describe what happens in this video sequence",
		},
		node.Param{
			Name:        "llm_config_id",
			Label:       "LLM Configuration",
			Description: "ID of the LLM configuration to use",
			Type:        node.TypeString,
			Widget:      node.WidgetLLM,
			Required:    true,
		},
	),
	Outputs: []node.Output{
		{
			Name:        "description",
			Label:       "Video Description",
			Description: "AI-generated description or analysis of the video sequence",
			Type:        node.TypeString,
		},
		{
			Name:        "success",
			Label:       "Success",
			Description: "Whether the operation was successful",
			Type:        node.TypeBoolean,
		},
		{
			Name:        "error_message",
			Label:       "Error Message",
			Description: "Error message if the operation failed",
			Type:        node.TypeString,
		},
	},
}

var errNoFrames = errors.New("at least one image path must be provided")

// VideoRecognition returns the video recognition node.
func VideoRecognition(d Deps) node.Node {
	return node.New(VideoRecognitionDescriptor, func(ctx context.Context, in VideoRecognitionInput, log node.Logger) (node.Outputs, error) {
		refs := in.Frames()
		if len(refs) == 0 {
			return nil, node.Fail(node.KindValidation, errNoFrames)
		}

		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}

		frames := make([]string, 0, len(refs))
		for _, ref := range refs {
			url, err := ImageURL(ref)
			if err != nil {
				return nil, err
			}
			frames = append(frames, url)
		}

		log.Info("Sending request to AI model")
		out, err := client.DescribeVideo(ctx, openaiapi.VideoRequest{
			Prompt: in.Prompt,
			Frames: frames,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Successfully received AI analysis")

		return node.Outputs{
			"description":   out.OutputText,
			"error_message": "",
		}, nil
	})
}
