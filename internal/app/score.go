package app

import (
	"fmt"
	"os"
	"strings"

	"occasion-listing/internal/config"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/report"
)

type ScoreOptions struct {
	ProductPath    string
	CompletionPath string
	ConfigPath     string
	CWD            string
}

type ScoreResult struct {
	Prepared Prepared
	Document report.Document
}

// ScoreCompletion runs a stored completion through assemble, validate and
// score without calling any provider.
func ScoreCompletion(opts ScoreOptions) (ScoreResult, error) {
	if strings.TrimSpace(opts.ProductPath) == "" || strings.TrimSpace(opts.CompletionPath) == "" {
		return ScoreResult{}, fmt.Errorf("需要同时提供 --product 和 --completion")
	}
	cwd := strings.TrimSpace(opts.CWD)
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ScoreResult{}, fmt.Errorf("读取当前目录失败：%w", err)
		}
		cwd = wd
	}
	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return ScoreResult{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ScoreResult{}, err
	}
	cat, err := config.LoadCatalog(paths)
	if err != nil {
		return ScoreResult{}, err
	}
	pipeline, err := NewPipeline(cfg, cat)
	if err != nil {
		return ScoreResult{}, err
	}

	product, err := listing.ParseFile(absPath(cwd, opts.ProductPath))
	if err != nil {
		return ScoreResult{}, err
	}
	prep, err := pipeline.Prepare(product)
	if err != nil {
		return ScoreResult{}, err
	}
	raw, err := os.ReadFile(absPath(cwd, opts.CompletionPath))
	if err != nil {
		return ScoreResult{}, fmt.Errorf("读取生成结果失败：%w", err)
	}
	doc, err := pipeline.Evaluate(prep, string(raw))
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{Prepared: prep, Document: doc}, nil
}
