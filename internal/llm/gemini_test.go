package llm

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestConfigureGeminiModel(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureGeminiModel(model, Request{SystemPrompt: "be brief", JSONMode: true, MaxTokens: 2048})
	if model.SystemInstruction == nil || len(model.SystemInstruction.Parts) != 1 {
		t.Fatalf("system instruction not set: %+v", model.SystemInstruction)
	}
	if text, ok := model.SystemInstruction.Parts[0].(genai.Text); !ok || string(text) != "be brief" {
		t.Fatalf("unexpected system part: %#v", model.SystemInstruction.Parts[0])
	}
	if model.ResponseMIMEType != "application/json" {
		t.Fatalf("json mode not set: %q", model.ResponseMIMEType)
	}
	if model.MaxOutputTokens == nil || *model.MaxOutputTokens != 2048 {
		t.Fatalf("max tokens not set")
	}

	plain := &genai.GenerativeModel{}
	configureGeminiModel(plain, Request{})
	if plain.SystemInstruction != nil || plain.ResponseMIMEType != "" {
		t.Fatalf("empty request should leave model untouched")
	}
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Blob{MIMEType: "image/png"}, genai.Text(`"x"}`)}},
	}}}
	got, err := geminiText(resp)
	if err != nil || got != `{"title":"x"}` {
		t.Fatalf("geminiText = %q err=%v", got, err)
	}
	for _, bad := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
		{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
	} {
		if _, err := geminiText(bad); err == nil || !strings.Contains(err.Error(), "gemini 返回") {
			t.Fatalf("expected empty error, got %v", err)
		}
	}
}
