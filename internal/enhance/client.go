// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enhance produces AI-generated descriptions of images embedded in
// documents and weaves them into converted Markdown.
package enhance

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/doc-analyzer/internal/httputil"
)

// ErrProvider means the description provider rejected or failed the call
// (auth, quota, network).
var ErrProvider = errors.New("enhancement provider failure")

// DefaultBaseURL is the OpenAI API root. A local OpenAI-compatible server
// (e.g. "http://127.0.0.1:1234/v1") can be selected instead via
// configuration or the local-llm-url secret.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the vision model used when the caller does not pick one.
const DefaultModel = "gpt-4o"

// maxEncodedImageBytes bounds the base64 payload for one image. Larger
// images are not sent; they get a placeholder caption instead.
const maxEncodedImageBytes = 3_000_000

// oversizedCaption is the placeholder for images exceeding the payload bound.
const oversizedCaption = "Image too large to process."

// describePrompt is the instruction sent alongside each image.
const describePrompt = "Describe this image in detail:"

// Describer produces a textual description of one image file.
// Implementations must be safe for concurrent use.
type Describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
}

// Client calls an OpenAI-compatible chat-completions API with image content
// parts. The zero value is not usable; construct with NewClient.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

// NewClient creates a description client. An empty model selects
// DefaultModel, an empty baseURL selects DefaultBaseURL, and a nil
// httpClient selects http.DefaultClient.
func NewClient(apiKey, model, baseURL string, httpClient *http.Client) *Client {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: 3,
		httpClient: httpClient,
	}
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is one message with mixed text and image content parts.
type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is a text or image_url element of a message.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Describe sends the image at imagePath to the provider and returns the
// generated caption. Images whose encoded payload exceeds the bound are not
// sent; the placeholder caption is returned instead.
func (c *Client) Describe(ctx context.Context, imagePath string) (string, error) {
	dataURI, oversized, err := encodeImage(imagePath)
	if err != nil {
		return "", err
	}
	if oversized {
		return oversizedCaption, nil
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: describePrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			},
		}},
		Temperature: 0.7,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling description request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building description request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrProvider, resp.StatusCode, errorDetail(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProvider, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrProvider)
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// encodeImage reads the image and returns its data URI. oversized is true
// when the encoded payload exceeds the bound, in which case the URI is empty.
func encodeImage(imagePath string) (uri string, oversized bool, err error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", false, fmt.Errorf("reading image %s: %w", imagePath, err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) > maxEncodedImageBytes {
		return "", true, nil
	}

	return "data:" + imageMIME(imagePath) + ";base64," + encoded, false, nil
}

// imageMIME maps an image file extension to its MIME type.
func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/png"
	}
}

// errorDetail pulls the provider's error message out of a non-200 body,
// falling back to a truncated raw body.
func errorDetail(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		return parsed.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
