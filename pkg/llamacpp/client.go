// Package llamacpp reads text from images with a vision model served by
// llama.cpp, through the server's OpenAI-compatible chat endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/mudrik/pkg/client"
	"github.com/menta2k/mudrik/pkg/types"
)

const (
	defaultURL   = "http://localhost:8080"
	chatEndpoint = "/v1/chat/completions"

	// maxAnswerBytes bounds the response body read from the server
	maxAnswerBytes = 4 << 20
)

// ErrNoAnswer is returned when the server replies without any text
var ErrNoAnswer = errors.New("llamacpp: no text in answer")

// StatusError is a non-200 reply from the server
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llamacpp: server returned status %d: %s", e.Code, e.Body)
}

// sampling holds the generation settings sent with a request
type sampling struct {
	temperature float64
	topP        float64
	maxTokens   int
	jsonOnly    bool
}

var (
	querySampling = sampling{temperature: 0.7, topP: 0.9, maxTokens: 2048}
	// Transcription keeps the temperature low so the model copies rather
	// than paraphrases
	transcribeSampling = sampling{temperature: 0.1, topP: 0.8, maxTokens: 4096, jsonOnly: true}
)

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	TopP           float64         `json:"top_p"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

// chatResponse keeps the message content raw since servers answer with
// either a string or a list of content parts
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to a llama.cpp server
type Client struct {
	baseURL    string
	httpClient *http.Client
	imageMIME  string
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a client for serverURL, defaulting to a local server
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		imageMIME:  "image/jpeg",
	}, nil
}

// SetImageFormat sets the MIME type announced for image payloads. It must
// match the encoding used to produce imgB64.
func (c *Client) SetImageFormat(format string) {
	if strings.EqualFold(format, "png") {
		c.imageMIME = "image/png"
		return
	}
	c.imageMIME = "image/jpeg"
}

// SimpleQuery sends a prompt with an optional image and returns the answer text
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, c.newRequest(model, prompt, imgB64, querySampling))
}

// Transcribe asks the model to read the text in an image. Answers that are
// not the requested JSON are kept as plain text.
func (c *Client) Transcribe(ctx context.Context, model, prompt, imgB64 string) (*types.Transcription, error) {
	answer, err := c.chat(ctx, c.newRequest(model, prompt, imgB64, transcribeSampling))
	if err != nil {
		return nil, err
	}
	return client.ParseTranscription(answer), nil
}

func (c *Client) newRequest(model, prompt, imgB64 string, s sampling) chatRequest {
	parts := []contentPart{{Type: "text", Text: prompt}}
	if imgB64 != "" {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:" + c.imageMIME + ";base64," + imgB64},
		})
	}
	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		Temperature: s.temperature,
		TopP:        s.topP,
		MaxTokens:   s.maxTokens,
	}
	if s.jsonOnly {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return req
}

// chat posts req and returns the first non-blank text of the first choice
func (c *Client) chat(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAnswerBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrNoAnswer
	}
	text := answerText(out.Choices[0].Message.Content)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoAnswer
	}
	return text, nil
}

// answerText extracts text from a string or content-part answer
func answerText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		for _, p := range parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text
			}
		}
	}
	return ""
}
