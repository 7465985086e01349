package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

func (c *Client) generateOpenAI(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.BaseURL) == "" {
		req.BaseURL = "https://api.openai.com"
	}
	mode := strings.ToLower(strings.TrimSpace(req.APIMode))
	if mode == "" {
		mode = "chat"
	}
	switch mode {
	case "responses":
		return c.openAIResponses(ctx, req)
	case "chat":
		return c.chatCompletions(ctx, req, "openai", "/v1/chat/completions")
	case "auto":
		text, err := c.openAIResponses(ctx, req)
		if err == nil {
			return text, nil
		}
		return c.chatCompletions(ctx, req, "openai", "/v1/chat/completions")
	default:
		return "", fmt.Errorf("openai api_mode 不支持：%s", req.APIMode)
	}
}

func (c *Client) openAIResponses(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model": req.Model,
		"input": []map[string]any{
			{"role": "system", "content": []map[string]any{{"type": "input_text", "text": req.SystemPrompt}}},
			{"role": "user", "content": []map[string]any{{"type": "input_text", "text": req.UserPrompt}}},
		},
	}
	if strings.TrimSpace(req.ReasoningEffort) != "" {
		payload["reasoning"] = map[string]any{"effort": req.ReasoningEffort}
	}
	if req.JSONMode {
		payload["text"] = map[string]any{"format": map[string]string{"type": "json_object"}}
	}

	var resp struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
		Error *apiError `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPost, joinURL(req.BaseURL, "/v1/responses"), req.APIKey, nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("responses API 错误：%s", resp.Error.Message)
	}
	if strings.TrimSpace(resp.OutputText) != "" {
		return resp.OutputText, nil
	}
	parts := make([]string, 0, len(resp.Output))
	for _, o := range resp.Output {
		for _, ctn := range o.Content {
			if strings.TrimSpace(ctn.Text) != "" {
				parts = append(parts, ctn.Text)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("responses API 返回为空")
	}
	return strings.Join(parts, "\n"), nil
}

// chatCompletions serves every OpenAI-compatible chat endpoint.
func (c *Client) chatCompletions(ctx context.Context, req Request, label, path string) (string, error) {
	payload := map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
		"stream": false,
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if strings.TrimSpace(req.ReasoningEffort) != "" {
		payload["reasoning_effort"] = req.ReasoningEffort
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *apiError `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPost, joinURL(req.BaseURL, path), req.APIKey, nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s chat completions 错误：%s", label, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completions 返回为空", label)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s chat completions 内容为空", label)
	}
	return text, nil
}
