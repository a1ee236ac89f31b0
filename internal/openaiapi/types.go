package openaiapi

import (
	"io"
	"time"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultAPIKeyEnv = "OPENAI_API_KEY"
)

// Config is OpenAI API client configuration.
type Config struct {
	Model     string
	BaseURL   string
	APIKey    string
	APIKeyEnv string
	// Timeout bounds each request when positive.
	Timeout time.Duration
}

// CompletionRequest is a two-message (system + user) chat completion.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// VisionRequest asks the model about a single image.
type VisionRequest struct {
	Prompt   string
	ImageURL string
}

// VideoRequest asks the model about an ordered sequence of frames.
type VideoRequest struct {
	Prompt string
	Frames []string
}

// CompletionResponse is the text of the first completion choice.
type CompletionResponse struct {
	OutputText string
}

// ImageRequest is a single image generation request.
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
	Style   string
}

// ImageResponse points at the generated image.
type ImageResponse struct {
	URL string
}

// TranscriptionRequest is a single audio transcription request.
// Language and Prompt are sent only when non-empty.
type TranscriptionRequest struct {
	File     io.Reader
	Language string
	Prompt   string
}

// TranscriptionResponse is the transcript text.
type TranscriptionResponse struct {
	Text string
}

// SpeechRequest is a single speech synthesis request.
type SpeechRequest struct {
	Input string
	Voice string
}
