package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/spigell/hyresense/internal/ai"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestClientCompleteSendsSystemInstructionAndLimits(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"fit_score": 70}`)}
	client := newClient(models, "gemini-pro")

	out, err := client.Complete(context.Background(), ai.Request{
		System:          "json only",
		Prompt:          "analyze",
		Temperature:     0.3,
		MaxOutputTokens: 2000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"fit_score": 70}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if models.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", models.model)
	}
	if models.config == nil || models.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := models.config.SystemInstruction.Parts[0].Text; got != "json only" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if models.config.Temperature == nil || *models.config.Temperature != 0.3 {
		t.Fatalf("unexpected temperature: %v", models.config.Temperature)
	}
	if models.config.MaxOutputTokens != 2000 {
		t.Fatalf("unexpected max output tokens: %d", models.config.MaxOutputTokens)
	}
	if len(models.contents) != 1 || models.contents[0].Parts[0].Text != "analyze" {
		t.Fatalf("unexpected contents: %+v", models.contents)
	}
}

func TestClientCompleteJoinsParts(t *testing.T) {
	client := newClient(&fakeModels{resp: textResponse("first", "", "second")}, "")

	out, err := client.Complete(context.Background(), ai.Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output: %q", out)
	}
	if client.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
}

func TestClientCompleteClassifiesErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "server error", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, permanent: false},
		{name: "rate limited", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, permanent: false},
		{name: "bad key", err: genai.APIError{Code: http.StatusUnauthorized, Status: "UNAUTHENTICATED"}, permanent: true},
		{name: "transport", err: errors.New("connection reset"), permanent: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(&fakeModels{err: tc.err}, "gemini-pro")

			_, err := client.Complete(context.Background(), ai.Request{Prompt: "p"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := ai.IsPermanent(err); got != tc.permanent {
				t.Fatalf("expected permanent=%v, got %v (%v)", tc.permanent, got, err)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
