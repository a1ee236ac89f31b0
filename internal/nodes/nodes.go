// Package nodes implements the OpenAI capability nodes.
package nodes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/metalagman/openainodes/internal/llmconfig"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/metalagman/openainodes/internal/openaiapi"
)

// Pack metadata reported to hosts.
const (
	PackName        = "OpenAI Integration"
	PackVersion     = "1.0.0"
	PackDescription = "Provides integration with OpenAI's AI models for text generation, image processing, and speech tasks"
	category        = "AI/ML"
)

// PackTags are the search tags of the node pack.
var PackTags = []string{
	"openai", "ai", "text generation", "image generation", "image recognition",
	"speech to text", "text to speech", "chatgpt", "dall-e", "whisper",
}

// Deps are the collaborators every node borrows per call.
type Deps struct {
	Resolver llmconfig.Resolver
	// HTTPClient is used for API calls and image downloads. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// All returns every capability node, in display order.
func All(d Deps) []node.Node {
	return []node.Node{
		TextGeneration(d),
		ImageGeneration(d),
		ImageRecognition(d),
		VideoRecognition(d),
		SpeechToText(d),
		TextToSpeech(d),
	}
}

// NewRegistry returns a registry holding every capability node.
func NewRegistry(d Deps) (*node.Registry, error) {
	return node.NewRegistry(All(d)...)
}

var configIDParam = node.Param{
	Name:        "llm_config_id",
	Label:       "AI Model",
	Description: "ID of the AI model configuration to use",
	Type:        node.TypeString,
	Widget:      node.WidgetLLM,
	Required:    true,
}

// client resolves the configuration id and builds a client scoped to one call.
func (d Deps) client(ctx context.Context, id string, log node.Logger) (*openaiapi.Client, error) {
	if d.Resolver == nil {
		return nil, node.Fail(node.KindConfigNotFound, llmconfig.NotFound(id))
	}

	log.Info(fmt.Sprintf("Getting LLM configuration for ID: %s", id))
	rec, err := d.Resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	params, err := rec.TypedParameters()
	if err != nil {
		return nil, err
	}

	log.Info("Initializing OpenAI client")
	client, err := openaiapi.NewClient(openaiapi.Config{
		Model:     rec.Model,
		BaseURL:   params.BaseURL,
		APIKey:    params.APIKey,
		APIKeyEnv: params.APIKeyEnv,
		Timeout:   params.Timeout,
	}, d.HTTPClient)
	if err != nil {
		return nil, node.Fail(node.KindParameters, err)
	}
	return client, nil
}

// ensureDir creates the parent directory of path when missing.
func ensureDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return node.Fail(node.KindFilesystem, err)
	}
	return os.MkdirAll(filepath.Dir(abs), 0o755)
}

// writeOutput lets fill write into a temporary file next to path and renames
// it onto path only when fill succeeds. A failed fill leaves path untouched.
func writeOutput(path string, fill func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return node.Fail(node.KindFilesystem, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return node.Fail(node.KindFilesystem, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return node.Fail(node.KindFilesystem, err)
	}
	return nil
}
