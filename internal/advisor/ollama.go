package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama asks a model served by an Ollama instance through /api/generate.
type Ollama struct {
	BaseURL    string
	Model      string
	System     string
	HTTPClient *http.Client
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ollama error: status=%d body=%s", e.StatusCode, e.Body)
}

func NewOllama(baseURL, model, assistantName string) *Ollama {
	return &Ollama{
		BaseURL: baseURL,
		Model:   model,
		System:  SystemInstruction(assistantName),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *Ollama) Suggest(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}
	var resp generateResponse
	if err := o.do(ctx, "api/generate", generateRequest{
		Model:  o.Model,
		Prompt: prompt,
		System: o.System,
	}, &resp); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", fmt.Errorf("no content returned from Ollama")
	}
	return text, nil
}

// Close is a no-op; the HTTP client holds nothing that needs releasing.
func (o *Ollama) Close() error { return nil }

func (o *Ollama) do(ctx context.Context, endpoint string, body any, out any) error {
	client := o.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(o.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
