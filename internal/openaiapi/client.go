package openaiapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI API for single-shot capability calls.
type Client struct {
	cfg    Config
	http   *http.Client
	client openai.Client
}

// NewClient constructs a new OpenAI API client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("openai model is required")
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		envKey := strings.TrimSpace(cfg.APIKeyEnv)
		if envKey == "" {
			envKey = defaultAPIKeyEnv
		}
		apiKey = strings.TrimSpace(os.Getenv(envKey))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required (set api_key or api_key_env)")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	} else {
		httpClient = http.DefaultClient
	}

	return &Client{
		cfg: Config{
			Model:   model,
			BaseURL: baseURL,
			Timeout: cfg.Timeout,
		},
		http:   httpClient,
		client: openai.NewClient(opts...),
	}, nil
}

// Model returns the model every request is sent to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete executes a single system + user chat completion.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	return c.chat(ctx, params)
}

// DescribeImage sends a text block followed by one image_url block.
func (c *Client) DescribeImage(ctx context.Context, req VisionRequest) (CompletionResponse, error) {
	return c.chat(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(req.Prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: req.ImageURL,
				}),
			}),
		},
	})
}

// DescribeVideo sends one "video" block holding every frame, followed by a text block.
// The video part is not modelled by the SDK, so the user content is set on the raw body.
func (c *Client) DescribeVideo(ctx context.Context, req VideoRequest) (CompletionResponse, error) {
	if len(req.Frames) == 0 {
		return CompletionResponse{}, fmt.Errorf("at least one frame is required")
	}
	content := []map[string]any{
		{"type": "video", "video": req.Frames},
		{"type": "text", "text": req.Prompt},
	}
	return c.chat(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}, option.WithJSONSet("messages.0.content", content))
}

func (c *Client) chat(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (CompletionResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("openai chat.completions.create: %w", err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("openai response did not contain any choices")
	}
	return CompletionResponse{OutputText: resp.Choices[0].Message.Content}, nil
}

// GenerateImage requests exactly one image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	params := openai.ImageGenerateParams{
		Model:          openai.ImageModel(c.cfg.Model),
		Prompt:         req.Prompt,
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	}
	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}
	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}
	if req.Style != "" {
		params.Style = openai.ImageGenerateParamsStyle(req.Style)
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return ImageResponse{}, fmt.Errorf("openai images.generate: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return ImageResponse{}, fmt.Errorf("openai response did not contain an image url")
	}
	return ImageResponse{URL: resp.Data[0].URL}, nil
}

// Download fetches url with a plain GET and copies the body to w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download image: unexpected status %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	return nil
}

// Transcribe executes a single audio transcription request.
func (c *Client) Transcribe(ctx context.Context, req TranscriptionRequest) (TranscriptionResponse, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  req.File,
		Model: openai.AudioModel(c.cfg.Model),
	}
	if req.Language != "" {
		params.Language = openai.String(req.Language)
	}
	if req.Prompt != "" {
		params.Prompt = openai.String(req.Prompt)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai audio.transcriptions.create: %w", err)
	}
	return TranscriptionResponse{Text: resp.Text}, nil
}

// Speak synthesises speech and returns the audio stream. Callers close it.
func (c *Client) Speak(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(c.cfg.Model),
		Input: req.Input,
		Voice: openai.AudioSpeechNewParamsVoice(req.Voice),
	})
	if err != nil {
		return nil, fmt.Errorf("openai audio.speech.create: %w", err)
	}
	return resp.Body, nil
}
