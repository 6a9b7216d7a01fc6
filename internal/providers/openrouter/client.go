package openrouter

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

	"github.com/rs/zerolog"

	"studymate/internal/domain"
	"studymate/internal/infra"
)

// Options configures the OpenRouter chat-completions client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	VisionModel    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to an OpenRouter-compatible completion API.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *infra.Logger
}

// Params tunes a single completion call. Zero values are omitted from the
// wire payload so the provider defaults apply.
type Params struct {
	MaxTokens         int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
	Stop              []string
}

// ImagePayload is an inline image for vision-mode calls.
type ImagePayload struct {
	Data []byte
	MIME string
}

// CompletionRequest captures one two-message exchange with the provider.
type CompletionRequest struct {
	System string
	User   string
	Images []ImagePayload
	Params Params
}

type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
	Temperature       float64       `json:"temperature,omitempty"`
	TopP              float64       `json:"top_p,omitempty"`
	TopK              int           `json:"top_k,omitempty"`
	RepetitionPenalty float64       `json:"repetition_penalty,omitempty"`
	Stop              []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "meta-llama/llama-3.1-70b-instruct"
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = model
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		visionModel: visionModel,
		httpClient:  httpClient,
		timeout:     timeout,
		logger:      logger,
	}
}

// Model returns the configured text model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Complete performs one chat-completion round trip and returns the raw text
// of the first candidate. The call is bounded by the configured timeout so a
// hanging provider cannot block a request indefinitely.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("openrouter: missing api key: %w", domain.ErrConfiguration)
	}
	user := strings.TrimSpace(req.User)
	if user == "" && len(req.Images) == 0 {
		return "", fmt.Errorf("openrouter: empty user content: %w", domain.ErrInvalidInput)
	}

	model := c.model
	var userContent any = user
	if len(req.Images) > 0 {
		model = c.visionModel
		parts := []contentPart{{Type: "text", Text: user}}
		for _, img := range req.Images {
			parts = append(parts, contentPart{
				Type:     "image_url",
				ImageURL: &imageURLPart{URL: img.DataURI()},
			})
		}
		userContent = parts
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: userContent},
		},
		MaxTokens:         req.Params.MaxTokens,
		Temperature:       req.Params.Temperature,
		TopP:              req.Params.TopP,
		TopK:              req.Params.TopK,
		RepetitionPenalty: req.Params.RepetitionPenalty,
		Stop:              req.Params.Stop,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openrouter: http request: %v: %w", err, domain.ErrProvider)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read response: %v: %w", err, domain.ErrProvider)
	}

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openrouter: status %d: %s: %w", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), 300), domain.ErrProvider)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %v: %w", err, domain.ErrProvider)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openrouter: no response: %w", domain.ErrProvider)
	}
	text := decoded.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("openrouter: empty response: %w", domain.ErrProvider)
	}

	c.logger.Debug().
		Str("model", model).
		Int("prompt_chars", len(user)).
		Int("images", len(req.Images)).
		Int("response_chars", len(text)).
		Msg("openrouter: completion")
	return text, nil
}

// DataURI encodes the payload as a base64 data URI for the wire format.
func (p ImagePayload) DataURI() string {
	mime := strings.TrimSpace(p.MIME)
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
