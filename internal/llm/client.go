// Package llm implements the Ollama inference client used for vision
// enrichment of rendered page images.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

const defaultRequestTimeout = 2 * time.Minute

// Client handles communication with an Ollama endpoint. It makes exactly one
// attempt per call: retry policy belongs to callers and must be explicit.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *observability.Logger
}

// generateRequest is the body for /api/generate.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the subset of the /api/generate reply we consume.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// tagsResponse is the reply shape of /api/tags.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewClient creates an Ollama client. timeout bounds each request; zero means
// the default.
func NewClient(baseURL string, timeout time.Duration, logger *observability.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent("llm"),
	}
}

// Analyze submits a page image to the vision model and returns its
// description. Failures are inference errors: soft for the page, never fatal
// for the document.
func (c *Client) Analyze(ctx context.Context, imageJPEG []byte, model string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", domain.InferenceError("model name is empty", nil)
	}
	if len(imageJPEG) == 0 {
		return "", domain.InferenceError("page image is empty", nil)
	}

	reqBody := generateRequest{
		Model:  model,
		Prompt: visionPrompt(),
		Images: []string{base64.StdEncoding.EncodeToString(imageJPEG)},
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.InferenceError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", domain.InferenceError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.InferenceError("inference request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.InferenceError(
			fmt.Sprintf("inference endpoint returned status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(b))), nil)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", domain.InferenceError("malformed inference response", err)
	}

	return gen.Response, nil
}

// ListModels returns the model names the endpoint currently serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, domain.InferenceError("failed to build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.InferenceError("model listing failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.InferenceError(
			fmt.Sprintf("model listing returned status %d", resp.StatusCode), nil)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, domain.InferenceError("malformed model listing response", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// visionPrompt is the instruction sent alongside each page image.
func visionPrompt() string {
	return `Please analyze this document image and extract the text content, tables, and any other visible information. Provide a comprehensive description of the layout and content.

Guidelines:
- Format tables as markdown tables
- Prefix headings with markdown heading markers
- Use markdown list format for lists
- Describe diagrams and figures in [Diagram: ...] blocks
- Preserve section numbering exactly as printed`
}
