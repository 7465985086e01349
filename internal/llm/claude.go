package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const claudeAPIVersion = "2023-06-01"

func (c *Client) generateClaude(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	user := req.UserPrompt
	if req.JSONMode {
		user += "\n\nRespond with a single JSON object and nothing else."
	}
	payload := map[string]any{
		"model":      req.Model,
		"max_tokens": maxTokens,
		"system":     req.SystemPrompt,
		"messages":   []map[string]string{{"role": "user", "content": user}},
	}
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *apiError `json:"error"`
	}
	headers := map[string]string{
		"x-api-key":         req.APIKey,
		"anthropic-version": claudeAPIVersion,
	}
	base := req.BaseURL
	if strings.TrimSpace(base) == "" {
		base = "https://api.anthropic.com"
	}
	if err := c.doJSON(ctx, http.MethodPost, joinURL(base, "/v1/messages"), "", headers, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("claude API 错误：%s", resp.Error.Message)
	}
	for _, ctn := range resp.Content {
		if ctn.Type == "text" && strings.TrimSpace(ctn.Text) != "" {
			return ctn.Text, nil
		}
	}
	return "", fmt.Errorf("claude 返回文本为空")
}
