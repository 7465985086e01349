package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"occasion-listing/internal/config"
	"occasion-listing/internal/discovery"
	"occasion-listing/internal/listing"
	"occasion-listing/internal/llm"
	"occasion-listing/internal/logging"
	"occasion-listing/internal/output"
	"occasion-listing/internal/report"
)

type Options struct {
	Inputs      []string
	ConfigPath  string
	OutputDir   string
	Concurrency int
	MaxRetries  int
	Provider    string
	LogFile     string
	Verbose     bool
	CWD         string
	Stdout      io.Writer
	// Completer replaces the HTTP client, mainly for tests.
	Completer llm.Completer
}

type Result struct {
	Succeeded int
	Failed    int
	Outputs   []string
}

func Run(ctx context.Context, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cwd := strings.TrimSpace(opts.CWD)
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Result{}, fmt.Errorf("读取当前目录失败：%w", err)
		}
		cwd = wd
	}

	cfg, paths, err := config.Load(opts.ConfigPath, cwd)
	if err != nil {
		return Result{}, err
	}
	overrideConfig(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	providerCfg := cfg.Providers[cfg.Provider]

	keyEnv := cfg.ProviderAPIKeyEnv()
	apiKey := config.ResolveAPIKey(keyEnv, paths.EnvPath)
	if apiKey == "" {
		return Result{}, fmt.Errorf("%s 为空。先执行 occasion-listing set key <api_key>，或在 %s 中填写", keyEnv, paths.EnvPath)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger, closer, err := logging.New(stdout, opts.LogFile, opts.Verbose)
	if err != nil {
		return Result{}, fmt.Errorf("初始化日志失败：%w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Emit(logging.Event{Event: "startup", Provider: cfg.Provider, Model: providerCfg.Model})
	logger.Emit(logging.Event{Event: "config_loaded", Input: paths.ConfigSource})

	if cfg.CatalogCenter.Enabled {
		syncRes, err := config.SyncCatalogsFromCenter(ctx, cfg, paths)
		if err != nil {
			return Result{}, err
		}
		switch {
		case syncRes.Warning != "":
			logger.Emit(logging.Event{Level: "warn", Event: "catalog_sync_warning", Message: syncRes.Warning})
		case syncRes.Updated:
			logger.Emit(logging.Event{Event: "catalog_sync_updated", Message: syncRes.Message})
		default:
			logger.Emit(logging.Event{Event: "catalog_sync_ok", Message: syncRes.Message})
		}
	}

	cat, err := config.LoadCatalog(paths)
	if err != nil {
		return Result{}, err
	}
	catalogVersion := "unversioned"
	if cat.Version != nil {
		catalogVersion = cat.Version.String()
	}
	logger.Emit(logging.Event{Event: "catalog_loaded", Input: paths.ResolvedCatalogDir, Message: fmt.Sprintf("%s（场景 %d 个）", catalogVersion, cat.Occasions.Len())})

	pipeline, err := NewPipeline(cfg, cat)
	if err != nil {
		return Result{}, err
	}

	inputPaths := make([]string, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		inputPaths = append(inputPaths, absPath(cwd, in))
	}
	discoverRes, err := discovery.Discover(inputPaths)
	if err != nil {
		return Result{}, err
	}
	for _, w := range discoverRes.Warnings {
		logger.Emit(logging.Event{Level: "warn", Event: "scan_warning", Error: w})
	}

	result := Result{}
	prepared := make([]Prepared, 0, len(discoverRes.Files))
	for _, file := range discoverRes.Files {
		product, parseErr := listing.ParseFile(file)
		if parseErr != nil {
			result.Failed++
			logger.Emit(logging.Event{Level: "error", Event: "parse_failed", Input: file, Error: parseErr.Error()})
			continue
		}
		prep, prepErr := pipeline.Prepare(product)
		if prepErr != nil {
			result.Failed++
			logger.Emit(logging.Event{Level: "error", Event: "validation_failed", Input: file, Product: product.Name, Error: prepErr.Error()})
			continue
		}
		for _, w := range slices.Concat(product.Warnings, prep.Warnings) {
			logger.Emit(logging.Event{Level: "warn", Event: "validation_warning", Input: file, Product: product.Name, Error: w})
		}
		prepared = append(prepared, prep)
	}

	if len(prepared) == 0 {
		if result.Failed > 0 {
			return result, nil
		}
		return result, fmt.Errorf("没有可生成的产品简报")
	}

	outDir := cfg.Output.Dir
	if strings.TrimSpace(outDir) == "" {
		outDir = "."
	}
	outDir = absPath(cwd, outDir)
	if err := output.EnsureDir(outDir); err != nil {
		return result, fmt.Errorf("创建输出目录失败：%w", err)
	}

	completer := opts.Completer
	if completer == nil {
		completer = llm.NewClient(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	}
	w := &worker{
		pipeline:    pipeline,
		completer:   completer,
		limiter:     newLimiter(cfg.RateLimitPerMin),
		logger:      logger,
		provider:    cfg.Provider,
		providerCfg: providerCfg,
		apiKey:      apiKey,
		maxRetries:  cfg.MaxRetries,
		timeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		outDir:      outDir,
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = -1
	}
	g.SetLimit(limit)
	for _, prep := range prepared {
		g.Go(func() error {
			path, err := w.process(ctx, prep)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				return nil
			}
			result.Succeeded++
			result.Outputs = append(result.Outputs, path)
			return nil
		})
	}
	_ = g.Wait()

	logger.Emit(logging.Event{Event: "finished", Message: fmt.Sprintf("完成：成功 %d，失败 %d", result.Succeeded, result.Failed)})
	return result, ctx.Err()
}

// newLimiter spaces completion calls evenly; perMinute <= 0 disables it.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

type worker struct {
	pipeline    *Pipeline
	completer   llm.Completer
	limiter     *rate.Limiter
	logger      *logging.Logger
	provider    string
	providerCfg config.ProviderConfig
	apiKey      string
	maxRetries  int
	timeout     time.Duration
	outDir      string
}

// outputRecord is the persisted JSON document. The run id lives here and in
// logs only, never in the brief or the score.
type outputRecord struct {
	RunID       string `json:"run_id"`
	Source      string `json:"source"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	GeneratedAt string `json:"generated_at"`
	report.Document
}

func (w *worker) process(ctx context.Context, prep Prepared) (string, error) {
	runID := uuid.NewString()
	base := logging.Event{
		RunID:    runID,
		Input:    prep.Product.SourcePath,
		Product:  prep.Product.Name,
		Occasion: prep.Brief.OccasionName,
		Locale:   prep.Brief.LocaleID,
		Provider: w.provider,
		Model:    w.providerCfg.Model,
	}
	emit := func(ev logging.Event) {
		ev.RunID, ev.Input, ev.Product = base.RunID, base.Input, base.Product
		ev.Provider, ev.Model = base.Provider, base.Model
		if ev.Occasion == "" {
			ev.Occasion = base.Occasion
		}
		if ev.Locale == "" {
			ev.Locale = base.Locale
		}
		w.logger.Emit(ev)
	}
	emit(logging.Event{Event: "compose_ok"})

	doc, resp, err := w.generate(ctx, prep, emit)
	if err != nil {
		emit(logging.Event{Level: "error", Event: "generate_failed", Error: err.Error()})
		return "", err
	}
	if len(doc.Listing.Backfilled) > 0 {
		emit(logging.Event{Level: "warn", Event: "assemble_backfilled", Message: strings.Join(doc.Listing.Backfilled, ", ")})
	}
	emit(logging.Event{Event: "score_ok", Score: doc.Score.Overall, Grade: doc.Score.Grade, Message: doc.Score.Summary()})

	pair, err := output.NextPair(w.outDir, 8, nil)
	if err != nil {
		emit(logging.Event{Level: "error", Event: "write_failed", Error: err.Error()})
		return "", err
	}
	record := outputRecord{
		RunID:       runID,
		Source:      prep.Product.SourcePath,
		Provider:    firstNonEmpty(resp.Provider, w.provider),
		Model:       firstNonEmpty(resp.Model, w.providerCfg.Model),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Document:    doc,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		emit(logging.Event{Level: "error", Event: "write_failed", Error: err.Error()})
		return "", err
	}
	if err := output.WriteFile(pair.JSONPath, append(data, '\n')); err != nil {
		emit(logging.Event{Level: "error", Event: "write_failed", OutputFile: pair.JSONPath, Error: err.Error()})
		return "", err
	}
	if err := output.WriteFile(pair.MDPath, []byte(report.RenderMarkdown(doc))); err != nil {
		emit(logging.Event{Level: "error", Event: "write_failed", OutputFile: pair.MDPath, Error: err.Error()})
		return "", err
	}
	emit(logging.Event{Event: "write_ok", OutputFile: pair.JSONPath})
	return pair.JSONPath, nil
}

// generate requests completions until one assembles. Each retry carries the
// previous failure back into the prompt.
func (w *worker) generate(ctx context.Context, prep Prepared, emit func(logging.Event)) (report.Document, llm.Response, error) {
	var (
		doc      report.Document
		resp     llm.Response
		feedback string
	)
	err := withExponentialBackoff(ctx, retryOptions{
		MaxRetries: w.maxRetries,
		BaseDelay:  700 * time.Millisecond,
		MaxDelay:   6 * time.Second,
		Jitter:     0.2,
		Retryable: func(err error) bool {
			return ctx.Err() == nil && !errors.Is(err, context.Canceled)
		},
		OnRetry: func(attempt int, wait time.Duration, err error) {
			emit(logging.Event{Level: "warn", Event: "retry_backoff", Attempt: attempt, WaitMS: wait.Milliseconds(), Error: err.Error()})
		},
	}, func(attempt int) error {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
		system, user := w.pipeline.Prompts(prep, feedback)
		emit(logging.Event{Event: "api_request", Attempt: attempt})

		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		start := time.Now()
		r, err := guardCompletion(callCtx, w.completer, llm.Request{
			Provider:        w.provider,
			BaseURL:         w.providerCfg.BaseURL,
			Model:           w.providerCfg.Model,
			APIMode:         w.providerCfg.APIMode,
			APIKey:          w.apiKey,
			ReasoningEffort: w.providerCfg.ModelReasoningEffort,
			SystemPrompt:    system,
			UserPrompt:      user,
			JSONMode:        true,
		})
		if err != nil {
			emit(logging.Event{Level: "warn", Event: "api_error", Attempt: attempt, Error: err.Error()})
			return err
		}
		d, err := w.pipeline.Evaluate(prep, r.Text)
		if err != nil {
			feedback = "The previous response was unusable (" + err.Error() + ")."
			emit(logging.Event{Level: "warn", Event: "api_error", Attempt: attempt, Error: err.Error()})
			return err
		}
		latency := r.LatencyMS
		if latency <= 0 {
			latency = time.Since(start).Milliseconds()
		}
		emit(logging.Event{Event: "assemble_ok", Attempt: attempt, LatencyMS: latency})
		doc, resp = d, r
		return nil
	})
	if err != nil {
		return report.Document{}, llm.Response{}, err
	}
	return doc, resp, nil
}

func overrideConfig(cfg *config.Config, opts Options) {
	if strings.TrimSpace(opts.OutputDir) != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if opts.Concurrency > 0 {
		cfg.Concurrency = opts.Concurrency
	}
	if opts.MaxRetries > 0 {
		cfg.MaxRetries = opts.MaxRetries
	}
	if strings.TrimSpace(opts.Provider) != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	}
}

func absPath(cwd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
