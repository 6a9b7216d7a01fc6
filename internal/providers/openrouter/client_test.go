package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"studymate/internal/domain"
)

type captureTransport struct {
	status   int
	body     string
	lastBody []byte
	calls    int
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestCompleteRequiresCredentials(t *testing.T) {
	transport := &captureTransport{body: chatBody("hi")}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})

	_, err := client.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if transport.calls != 0 {
		t.Fatalf("expected no network call without credentials, got %d", transport.calls)
	}
}

func TestCompleteBuildsTwoMessageExchange(t *testing.T) {
	transport := &captureTransport{body: chatBody("result")}
	client := NewClient(Options{
		APIKey:     "test",
		Model:      "test-model",
		HTTPClient: &http.Client{Transport: transport},
	})

	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "you summarize",
		User:   "some content",
		Params: Params{MaxTokens: 1024, Temperature: 0.2, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "result" {
		t.Fatalf("out = %q, want result", out)
	}

	var sent map[string]any
	if err := json.Unmarshal(transport.lastBody, &sent); err != nil {
		t.Fatalf("decode sent payload: %v", err)
	}
	if sent["model"] != "test-model" {
		t.Fatalf("model = %v, want test-model", sent["model"])
	}
	msgs, ok := sent["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v, want two entries", sent["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first role = %v, want system", first["role"])
	}
	second := msgs[1].(map[string]any)
	if second["role"] != "user" || second["content"] != "some content" {
		t.Fatalf("second message = %v", second)
	}
	if sent["max_tokens"] != float64(1024) {
		t.Fatalf("max_tokens = %v, want 1024", sent["max_tokens"])
	}
	if sent["top_k"] != float64(40) {
		t.Fatalf("top_k = %v, want 40", sent["top_k"])
	}
	if sent["repetition_penalty"] != float64(1.1) {
		t.Fatalf("repetition_penalty = %v, want 1.1", sent["repetition_penalty"])
	}
}

func TestCompleteVisionAttachesImageParts(t *testing.T) {
	transport := &captureTransport{body: chatBody("extracted text")}
	client := NewClient(Options{
		APIKey:      "test",
		Model:       "text-model",
		VisionModel: "vision-model",
		HTTPClient:  &http.Client{Transport: transport},
	})

	_, err := client.Complete(context.Background(), CompletionRequest{
		System: "extract text",
		User:   "read this image",
		Images: []ImagePayload{{Data: []byte{0xff, 0xd8, 0xff}, MIME: "image/jpeg"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	var sent map[string]any
	if err := json.Unmarshal(transport.lastBody, &sent); err != nil {
		t.Fatalf("decode sent payload: %v", err)
	}
	if sent["model"] != "vision-model" {
		t.Fatalf("model = %v, want vision-model", sent["model"])
	}
	msgs := sent["messages"].([]any)
	user := msgs[1].(map[string]any)
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("user content = %v, want text part and image part", user["content"])
	}
	img := parts[1].(map[string]any)
	if img["type"] != "image_url" {
		t.Fatalf("part type = %v, want image_url", img["type"])
	}
	url := img["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("image url = %q, want base64 data uri", url)
	}
}

func TestCompleteMapsTransportFailures(t *testing.T) {
	transport := &captureTransport{status: http.StatusBadGateway, body: `{"error":"upstream exploded"}`}
	client := NewClient(Options{APIKey: "test", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error should carry the status code: %v", err)
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("error should carry the provider body: %v", err)
	}
}

func TestCompleteFailsOnEmptyChoices(t *testing.T) {
	transport := &captureTransport{body: `{"choices":[]}`}
	client := NewClient(Options{APIKey: "test", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.Complete(context.Background(), CompletionRequest{System: "s", User: "u"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
	if !strings.Contains(err.Error(), "no response") {
		t.Fatalf("err = %v, want a no-response diagnostic", err)
	}
}

func TestDataURIDefaultsToJPEG(t *testing.T) {
	uri := ImagePayload{Data: []byte{0x01}}.DataURI()
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("uri = %q, want jpeg default", uri)
	}
	if !bytes.Equal([]byte(uri[len("data:image/jpeg;base64,"):]), []byte("AQ==")) {
		t.Fatalf("unexpected payload encoding: %q", uri)
	}
}
