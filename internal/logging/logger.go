package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes pipeline events as NDJSON in verbose mode and as short
// human lines otherwise.
type Logger struct {
	mu       sync.Mutex
	verbose  bool
	z        *zap.Logger
	onceKeys map[string]struct{}
}

type Event struct {
	Level      string  `json:"level"`
	Event      string  `json:"event"`
	RunID      string  `json:"run_id,omitempty"`
	Input      string  `json:"input,omitempty"`
	Product    string  `json:"product,omitempty"`
	Occasion   string  `json:"occasion,omitempty"`
	Locale     string  `json:"locale,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	Model      string  `json:"model,omitempty"`
	Attempt    int     `json:"attempt,omitempty"`
	WaitMS     int64   `json:"wait_ms,omitempty"`
	LatencyMS  int64   `json:"latency_ms,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Grade      string  `json:"grade,omitempty"`
	OutputFile string  `json:"output_file,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func New(stdout io.Writer, logFile string, verbose bool) (*Logger, io.Closer, error) {
	w := stdout
	var file *os.File
	if strings.TrimSpace(logFile) != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		file = f
		w = io.MultiWriter(stdout, f)
	}
	l := &Logger{
		verbose:  verbose,
		z:        zap.New(zapcore.NewCore(encoder(verbose), zapcore.Lock(zapcore.AddSync(w)), zapcore.DebugLevel)),
		onceKeys: map[string]struct{}{},
	}
	if file == nil {
		return l, nil, nil
	}
	return l, closerFunc(func() error {
		_ = l.z.Sync()
		return file.Close()
	}), nil
}

func encoder(verbose bool) zapcore.Encoder {
	if verbose {
		return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:     "ts",
			LevelKey:    "level",
			MessageKey:  "event",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		})
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:    "ts",
		MessageKey: "msg",
		EncodeTime: zapcore.TimeEncoderOfLayout(time.TimeOnly),
	})
}

func (l *Logger) Emit(ev Event) {
	if l == nil || l.z == nil {
		return
	}
	level := parseLevel(ev.Level)
	if l.verbose {
		if ce := l.z.Check(level, ev.Event); ce != nil {
			ce.Write(fields(ev)...)
		}
		return
	}
	line := l.formatHuman(ev)
	if line == "" {
		return
	}
	if ce := l.z.Check(level, line); ce != nil {
		ce.Write()
	}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fields(ev Event) []zap.Field {
	out := make([]zap.Field, 0, 12)
	str := func(key, v string) {
		if v != "" {
			out = append(out, zap.String(key, v))
		}
	}
	str("run_id", ev.RunID)
	str("input", ev.Input)
	str("product", ev.Product)
	str("occasion", ev.Occasion)
	str("locale", ev.Locale)
	str("provider", ev.Provider)
	str("model", ev.Model)
	if ev.Attempt > 0 {
		out = append(out, zap.Int("attempt", ev.Attempt))
	}
	if ev.WaitMS > 0 {
		out = append(out, zap.Int64("wait_ms", ev.WaitMS))
	}
	if ev.LatencyMS > 0 {
		out = append(out, zap.Int64("latency_ms", ev.LatencyMS))
	}
	if ev.Score > 0 {
		out = append(out, zap.Float64("score", ev.Score))
	}
	str("grade", ev.Grade)
	str("output_file", ev.OutputFile)
	str("message", ev.Message)
	str("error", ev.Error)
	return out
}

// onceLine returns line the first time key is seen and "" afterwards.
func (l *Logger) onceLine(key, line string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.onceKeys[key]; ok {
		return ""
	}
	l.onceKeys[key] = struct{}{}
	return line
}

func (l *Logger) formatHuman(ev Event) string {
	name := displayName(ev)
	switch ev.Event {
	case "startup":
		return l.onceLine("startup", fmt.Sprintf("启动：provider=%s model=%s", ev.Provider, ev.Model))
	case "config_loaded":
		return fmt.Sprintf("已加载配置：%s", ev.Input)
	case "catalog_loaded":
		return fmt.Sprintf("已加载目录：%s", ev.Message)
	case "catalog_sync_updated", "catalog_sync_ok":
		return ev.Message
	case "catalog_sync_warning", "scan_warning", "validation_warning":
		return fmt.Sprintf("警告：%s", firstNonEmpty(ev.Error, ev.Message))
	case "parse_failed", "validation_failed":
		return fmt.Sprintf("%s 解析失败：%s", name, ev.Error)
	case "compose_ok":
		return fmt.Sprintf("%s 已生成简报（场景=%s，站点=%s）", name, ev.Occasion, ev.Locale)
	case "api_request":
		return l.onceLine("api_request:"+ev.Input, fmt.Sprintf("%s 开始生成", name))
	case "api_error":
		return fmt.Sprintf("%s 第 %d 次请求失败：%s", name, ev.Attempt, ev.Error)
	case "retry_backoff":
		return fmt.Sprintf("%s 等待 %s 后重试", name, formatMS(ev.WaitMS))
	case "assemble_ok":
		return fmt.Sprintf("%s 组装完成，耗时 %s", name, formatMS(ev.LatencyMS))
	case "assemble_backfilled":
		return fmt.Sprintf("%s 缺失字段已补齐：%s", name, ev.Message)
	case "score_ok":
		return fmt.Sprintf("%s 评分 %.2f（%s）", name, ev.Score, ev.Grade)
	case "generate_failed":
		return fmt.Sprintf("%s 生成失败：%s", name, ev.Error)
	case "write_ok":
		return fmt.Sprintf("%s 已写入：%s", name, ev.OutputFile)
	case "write_failed":
		return fmt.Sprintf("%s 写入失败：%s", name, ev.Error)
	case "finished":
		return ev.Message
	default:
		return ""
	}
}

func displayName(ev Event) string {
	if strings.TrimSpace(ev.Product) != "" {
		return ev.Product
	}
	return ev.Input
}

func formatMS(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
