package openaiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	return out
}

func writeChatCompletion(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": text},
		}},
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, model string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Model:   model,
		BaseURL: srv.URL,
		APIKey:  "test-api-key",
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestClientComplete_SendsExpectedPayloadAndParsesOutput(t *testing.T) {
	var gotAuth string
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotBody = decodeBody(t, r)
		writeChatCompletion(w, "cherry blossoms fall")
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "gpt-4o")
	temperature := 0.7
	out, err := client.Complete(context.Background(), CompletionRequest{
		System:      "You are a poet.",
		Prompt:      "Write a haiku",
		MaxTokens:   1000,
		Temperature: &temperature,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if out.OutputText != "cherry blossoms fall" {
		t.Fatalf("output text = %q, want %q", out.OutputText, "cherry blossoms fall")
	}

	if gotAuth != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q, want bearer auth", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q, want %q", gotPath, "/chat/completions")
	}
	if gotBody["model"] != "gpt-4o" {
		t.Fatalf("model = %v, want %q", gotBody["model"], "gpt-4o")
	}
	if gotBody["max_tokens"] != float64(1000) {
		t.Fatalf("max_tokens = %v, want 1000", gotBody["max_tokens"])
	}
	if gotBody["temperature"] != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", gotBody["temperature"])
	}
	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v, want two messages", gotBody["messages"])
	}
	system := messages[0].(map[string]any)
	user := messages[1].(map[string]any)
	if system["role"] != "system" || system["content"] != "You are a poet." {
		t.Fatalf("system message = %v", system)
	}
	if user["role"] != "user" || user["content"] != "Write a haiku" {
		t.Fatalf("user message = %v", user)
	}
}

func TestClientDescribeImage_SendsTextThenImageBlock(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		writeChatCompletion(w, "a cat")
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "gpt-4o")
	out, err := client.DescribeImage(context.Background(), VisionRequest{
		Prompt:   "What is in this image?",
		ImageURL: "https://example.com/cat.jpg",
	})
	if err != nil {
		t.Fatalf("DescribeImage returned error: %v", err)
	}
	if out.OutputText != "a cat" {
		t.Fatalf("output text = %q, want %q", out.OutputText, "a cat")
	}

	content := gotBody["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content = %v, want two blocks", content)
	}
	text := content[0].(map[string]any)
	image := content[1].(map[string]any)
	if text["type"] != "text" || text["text"] != "What is in this image?" {
		t.Fatalf("text block = %v", text)
	}
	if image["type"] != "image_url" {
		t.Fatalf("image block type = %v", image["type"])
	}
	if image["image_url"].(map[string]any)["url"] != "https://example.com/cat.jpg" {
		t.Fatalf("image url = %v", image["image_url"])
	}
}

func TestClientDescribeVideo_BundlesFramesInOneVideoBlock(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		writeChatCompletion(w, "a person walks")
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "qwen-vl")
	_, err := client.DescribeVideo(context.Background(), VideoRequest{
		Prompt: "Describe",
		Frames: []string{"https://example.com/1.jpg", "https://example.com/2.jpg"},
	})
	if err != nil {
		t.Fatalf("DescribeVideo returned error: %v", err)
	}

	messages := gotBody["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %v, want one", messages)
	}
	content := messages[0].(map[string]any)["content"].([]any)
	video := content[0].(map[string]any)
	text := content[1].(map[string]any)
	if video["type"] != "video" {
		t.Fatalf("first block type = %v, want video", video["type"])
	}
	frames := video["video"].([]any)
	if len(frames) != 2 || frames[0] != "https://example.com/1.jpg" || frames[1] != "https://example.com/2.jpg" {
		t.Fatalf("frames = %v", frames)
	}
	if text["type"] != "text" || text["text"] != "Describe" {
		t.Fatalf("text block = %v", text)
	}
}

func TestClientGenerateImage_RequestsSingleImageAndDownloads(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":0,"data":[{"url":"` + srv.URL + `/files/img.png"}]}`))
	})
	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PNGDATA"))
	})

	client := newTestClient(t, srv, "dall-e-3")
	img, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:  "a lighthouse",
		Size:    "1024x1024",
		Quality: "hd",
		Style:   "natural",
	})
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if gotBody["n"] != float64(1) {
		t.Fatalf("n = %v, want 1", gotBody["n"])
	}
	for key, want := range map[string]string{
		"model":           "dall-e-3",
		"prompt":          "a lighthouse",
		"size":            "1024x1024",
		"quality":         "hd",
		"style":           "natural",
		"response_format": "url",
	} {
		if gotBody[key] != want {
			t.Fatalf("%s = %v, want %q", key, gotBody[key], want)
		}
	}

	var buf bytes.Buffer
	if err := client.Download(context.Background(), img.URL, &buf); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if buf.String() != "PNGDATA" {
		t.Fatalf("downloaded = %q, want %q", buf.String(), "PNGDATA")
	}
}

func TestClientDownload_ReturnsErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "dall-e-3")
	err := client.Download(context.Background(), srv.URL+"/missing.png", io.Discard)
	if err == nil {
		t.Fatal("Download returned nil error, want error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("error = %q, want status in message", err.Error())
	}
}

func TestClientTranscribe_OmitsEmptyOptionalFields(t *testing.T) {
	var fields map[string]string
	var fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("parse content type: %v", err)
			return
		}
		fields = map[string]string{}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FormName() == "file" {
				fileBody = string(data)
				continue
			}
			fields[part.FormName()] = string(data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "whisper-1")
	out, err := client.Transcribe(context.Background(), TranscriptionRequest{
		File:     strings.NewReader("RIFFDATA"),
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if out.Text != "hello world" {
		t.Fatalf("text = %q, want %q", out.Text, "hello world")
	}
	if fields["model"] != "whisper-1" {
		t.Fatalf("model = %q", fields["model"])
	}
	if fields["language"] != "en" {
		t.Fatalf("language = %q, want en", fields["language"])
	}
	if _, ok := fields["prompt"]; ok {
		t.Fatalf("prompt field sent although empty")
	}
	if fileBody != "RIFFDATA" {
		t.Fatalf("file body = %q", fileBody)
	}
}

func TestClientSpeak_StreamsAudioBody(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3AUDIO"))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "tts-1")
	body, err := client.Speak(context.Background(), SpeechRequest{Input: "hi", Voice: "nova"})
	if err != nil {
		t.Fatalf("Speak returned error: %v", err)
	}
	defer func() { _ = body.Close() }()
	audio, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if string(audio) != "ID3AUDIO" {
		t.Fatalf("audio = %q", audio)
	}
	if gotBody["voice"] != "nova" || gotBody["input"] != "hi" || gotBody["model"] != "tts-1" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestNewClient_ReturnsErrorWhenAPIKeyMissing(t *testing.T) {
	const envKey = "OPENAINODES_MISSING_KEY"
	if err := os.Unsetenv(envKey); err != nil {
		t.Fatalf("unset env: %v", err)
	}

	_, err := NewClient(Config{
		Model:     "gpt-4o",
		BaseURL:   "http://127.0.0.1",
		APIKeyEnv: envKey,
	}, nil)
	if err == nil {
		t.Fatal("NewClient returned nil error, want error")
	}
}

func TestNewClient_ReadsAPIKeyFromEnv(t *testing.T) {
	const envKey = "OPENAINODES_TEST_KEY"
	t.Setenv(envKey, "env-key")

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeChatCompletion(w, "ok")
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-4o", BaseURL: srv.URL, APIKeyEnv: envKey}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if gotAuth != "Bearer env-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}

func TestClientComplete_DoesNotRetryOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "gpt-4o")
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("Complete returned nil error, want error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestClientComplete_ReturnsErrorWhenChoicesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, "gpt-4o")
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("Complete returned nil error, want error")
	}
	if !strings.Contains(err.Error(), "choices") {
		t.Fatalf("error = %q, want choices failure", err.Error())
	}
}
