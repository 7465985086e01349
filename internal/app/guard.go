package app

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"occasion-listing/internal/llm"
)

// guardCompletion isolates one completion call: a panicking provider becomes
// an error and invalid UTF-8 in the reply is replaced.
func guardCompletion(ctx context.Context, c llm.Completer, req llm.Request) (resp llm.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = llm.Response{}
			err = fmt.Errorf("生成调用异常：%v", r)
		}
	}()
	if c == nil {
		return llm.Response{}, fmt.Errorf("未配置生成客户端")
	}
	resp, err = c.Generate(ctx, req)
	if err != nil {
		return llm.Response{}, err
	}
	if !utf8.ValidString(resp.Text) {
		resp.Text = strings.ToValidUTF8(resp.Text, "�")
	}
	return resp, nil
}
