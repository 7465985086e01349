// Package llm sends a rendered generation brief to a text-completion
// provider and returns the raw completion text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Completer is the text-completion collaborator the pipeline depends on.
type Completer interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

type Request struct {
	Provider        string
	BaseURL         string
	Model           string
	APIMode         string
	APIKey          string
	ReasoningEffort string
	SystemPrompt    string
	UserPrompt      string
	JSONMode        bool
	MaxTokens       int
}

type Response struct {
	Text      string
	Provider  string
	Model     string
	LatencyMS int64
}

type Client struct {
	httpClient *http.Client
}

var _ Completer = (*Client)(nil)

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Generate(ctx context.Context, req Request) (Response, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = "deepseek"
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return Response{}, fmt.Errorf("%s API key 为空", provider)
	}
	start := time.Now()
	var (
		text string
		err  error
	)
	switch provider {
	case "openai":
		text, err = c.generateOpenAI(ctx, req)
	case "deepseek":
		if strings.TrimSpace(req.BaseURL) == "" {
			req.BaseURL = "https://api.deepseek.com"
		}
		text, err = c.chatCompletions(ctx, req, "deepseek", "/chat/completions")
	case "claude":
		text, err = c.generateClaude(ctx, req)
	case "gemini":
		text, err = generateGemini(ctx, req)
	default:
		err = fmt.Errorf("不支持的 provider：%s", provider)
	}
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text:      strings.TrimSpace(text),
		Provider:  provider,
		Model:     req.Model,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, bearer string, extraHeaders map[string]string, in any, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return fmt.Errorf("编码请求失败：%w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, buf)
	if err != nil {
		return fmt.Errorf("创建请求失败：%w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(bearer) != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败：%w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败：%w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 800))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析响应失败：%w; 原始响应: %s", err, truncate(string(body), 800))
	}
	return nil
}

func joinURL(base, path string) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), "/")
	if strings.HasSuffix(base, "/v1") && strings.HasPrefix(path, "/v1/") {
		path = strings.TrimPrefix(path, "/v1")
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type apiError struct {
	Message string `json:"message"`
}
