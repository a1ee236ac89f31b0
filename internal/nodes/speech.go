package nodes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// SpeechToTextInput are the bound inputs of the speech to text node.
type SpeechToTextInput struct {
	AudioFile string `mapstructure:"audio_file"`
	Language  string `mapstructure:"language"`
	Prompt    string `mapstructure:"prompt"`
	ConfigID  string `mapstructure:"llm_config_id"`
}

// SpeechToTextDescriptor declares the speech to text node.
var SpeechToTextDescriptor = node.Descriptor{
	Name:          "speech_to_text",
	Title:         "Speech to Text",
	Description:   "Convert audio to text using OpenAI's Whisper model",
	Category:      category,
	Icon:          "🎙️",
	FailurePrefix: "Speech to text conversion",
	Inputs: []node.Param{
		{
			Name:        "audio_file",
			Label:       "Audio File",
			Description: "Audio file to transcribe (supports mp3, mp4, mpeg, mpga, m4a, wav, webm)",
			Type:        node.TypeString,
			Widget:      node.WidgetFile,
			Required:    true,
		},
		{
			Name:        "language",
			Label:       "Language",
			Description: "Language of the audio (optional, auto-detected if not specified)",
			Type:        node.TypeString,
			Default:     "",
		},
		{
			Name:        "prompt",
			Label:       "Prompt",
			Description: "Optional text to guide the model's style or continue a previous transcription",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Default:     "",
		},
		configIDParam,
	},
	Outputs: []node.Output{
		{
			Name:        "transcription",
			Label:       "Transcribed Text",
			Description: "The transcribed text from the audio file",
			Type:        node.TypeString,
		},
	},
}

// SpeechToText returns the speech to text node.
func SpeechToText(d Deps) node.Node {
	return node.New(SpeechToTextDescriptor, func(ctx context.Context, in SpeechToTextInput, log node.Logger) (node.Outputs, error) {
		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}

		f, err := os.Open(in.AudioFile)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()

		log.Info("Sending request to Whisper model")
		out, err := client.Transcribe(ctx, openaiapi.TranscriptionRequest{
			File:     f,
			Language: in.Language,
			Prompt:   in.Prompt,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Successfully received transcription")

		return node.Outputs{"transcription": out.Text}, nil
	})
}

// TextToSpeechInput are the bound inputs of the text to speech node.
type TextToSpeechInput struct {
	Text       string `mapstructure:"text"`
	Voice      string `mapstructure:"voice"`
	OutputFile string `mapstructure:"output_file"`
	ConfigID   string `mapstructure:"llm_config_id"`
}

// Voices are the selectable speech voices.
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// TextToSpeechDescriptor declares the text to speech node.
var TextToSpeechDescriptor = node.Descriptor{
	Name:          "text_to_speech",
	Title:         "Text to Speech",
	Description:   "Convert text to natural-sounding speech using OpenAI's TTS models",
	Category:      category,
	Icon:          "🔊",
	FailurePrefix: "Text to speech conversion",
	Inputs: []node.Param{
		{
			Name:        "text",
			Label:       "Text",
			Description: "The text to convert to speech",
			Type:        node.TypeString,
			Widget:      node.WidgetTextArea,
			Required:    true,
		},
		{
			Name:        "voice",
			Label:       "Voice",
			Description: "The voice to use for the speech",
			Type:        node.TypeString,
			Required:    true,
			Default:     "alloy",
			Choices:     Voices,
		},
		{
			Name:        "output_file",
			Label:       "Output File",
			Description: "Path to save the generated audio file (mp3 format)",
			Type:        node.TypeString,
			Widget:      node.WidgetFile,
			Required:    true,
			Default:     "output.mp3",
		},
		configIDParam,
	},
	Outputs: []node.Output{
		{
			Name:        "audio_path",
			Label:       "Audio File Path",
			Description: "Path to the generated audio file",
			Type:        node.TypeString,
		},
	},
}

// TextToSpeech returns the text to speech node.
func TextToSpeech(d Deps) node.Node {
	return node.New(TextToSpeechDescriptor, func(ctx context.Context, in TextToSpeechInput, log node.Logger) (node.Outputs, error) {
		client, err := d.client(ctx, in.ConfigID, log)
		if err != nil {
			return nil, err
		}
		if err := ensureDir(in.OutputFile); err != nil {
			return nil, err
		}

		log.Info("Sending request to TTS model")
		audio, err := client.Speak(ctx, openaiapi.SpeechRequest{
			Input: in.Text,
			Voice: in.Voice,
		})
		if err != nil {
			return nil, err
		}
		defer func() { _ = audio.Close() }()

		err = writeOutput(in.OutputFile, func(w io.Writer) error {
			if _, err := io.Copy(w, audio); err != nil {
				return fmt.Errorf("write speech audio: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Info(fmt.Sprintf("Successfully saved audio to %s", in.OutputFile))

		return node.Outputs{"audio_path": in.OutputFile}, nil
	})
}
