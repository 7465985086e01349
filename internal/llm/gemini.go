package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

func generateGemini(ctx context.Context, req Request) (string, error) {
	name := strings.TrimSpace(req.Model)
	if name == "" {
		return "", fmt.Errorf("gemini model 不能为空")
	}
	opts := []option.ClientOption{option.WithAPIKey(req.APIKey)}
	if base := strings.TrimSpace(req.BaseURL); base != "" {
		opts = append(opts, option.WithEndpoint(base))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("创建 gemini 客户端失败：%w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(name)
	configureGeminiModel(model, req)
	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini API 错误：%w", err)
	}
	return geminiText(resp)
}

func configureGeminiModel(model *genai.GenerativeModel, req Request) {
	if strings.TrimSpace(req.SystemPrompt) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini 返回为空")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini 返回文本为空")
	}
	return b.String(), nil
}
