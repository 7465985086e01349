package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"occasion-listing/internal/app"
)

type genFlags struct {
	configArg      string
	outputDirArg   string
	concurrencyArg int
	maxRetriesArg  int
	providerArg    string
	logFileArg     string
	verboseArg     bool
}

func Execute() error {
	root := NewRootCmd(os.Stdout, os.Stderr)
	root.SetArgs(normalizeArgs(os.Args[1:]))
	return root.ExecuteContext(context.Background())
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &genFlags{}
	showVersion := false

	root := &cobra.Command{
		Use:           "occasion-listing [file_or_dir ...]",
		Short:         "根据产品简报批量生成场景化 listing 并评分",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGen(stdout, flags, &showVersion),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true
	bindGenFlags(root, flags)
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "显示版本信息")

	genCmd := &cobra.Command{
		Use:           "gen [file_or_dir ...]",
		Short:         "生成 listing JSON 与 Markdown 文件",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGen(stdout, flags, &showVersion),
	}
	root.AddCommand(genCmd)

	versionCmd := &cobra.Command{
		Use:           "version",
		Short:         "显示版本信息",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(stdout)
		},
	}
	root.AddCommand(versionCmd)
	root.AddCommand(newScoreCmd(stdout, flags))
	root.AddCommand(newCatalogCmd(stdout, flags))
	root.AddCommand(newSetCmd(flags))
	root.AddCommand(newUpdateCmd(stdout, flags))
	return root
}

func bindGenFlags(cmd *cobra.Command, flags *genFlags) {
	cmd.PersistentFlags().StringVar(&flags.configArg, "config", "", "配置文件路径，默认 ~/.occasion-listing/config.yaml")
	cmd.PersistentFlags().StringVarP(&flags.outputDirArg, "out", "o", "", "输出目录，默认当前目录")
	cmd.PersistentFlags().IntVar(&flags.concurrencyArg, "concurrency", 0, "并发生成数量，0 表示不限制")
	cmd.PersistentFlags().IntVar(&flags.maxRetriesArg, "max-retries", 0, "最大重试次数")
	cmd.PersistentFlags().StringVar(&flags.providerArg, "provider", "", "覆盖配置中的 provider（deepseek/openai/claude/gemini）")
	cmd.PersistentFlags().StringVar(&flags.logFileArg, "log-file", "", "日志文件路径")
	cmd.PersistentFlags().BoolVar(&flags.verboseArg, "verbose", false, "输出详细 NDJSON（机器友好）")
}

func runGen(stdout io.Writer, flags *genFlags, showVersion *bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if showVersion != nil && *showVersion {
			printVersion(stdout)
			return nil
		}

		if len(args) == 0 {
			_ = cmd.Help()
			return nil
		}

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("读取当前目录失败：%w", err)
		}

		start := time.Now()
		res, err := app.Run(cmd.Context(), app.Options{
			Inputs:      args,
			ConfigPath:  flags.configArg,
			OutputDir:   flags.outputDirArg,
			Concurrency: flags.concurrencyArg,
			MaxRetries:  flags.maxRetriesArg,
			Provider:    flags.providerArg,
			LogFile:     flags.logFileArg,
			Verbose:     flags.verboseArg,
			CWD:         cwd,
			Stdout:      stdout,
		})
		if err != nil {
			return err
		}

		finalLine := fmt.Sprintf(
			"任务完成：成功 %d，失败 %d，总耗时 %s",
			res.Succeeded,
			res.Failed,
			formatDurationMS(time.Since(start).Milliseconds()),
		)
		if res.Failed > 0 {
			return fmt.Errorf("%s", finalLine)
		}
		if !flags.verboseArg {
			fmt.Fprintln(stdout, finalLine)
		}
		return nil
	}
}

func formatDurationMS(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60_000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000.0)
	}
	minutes := ms / 60_000
	remainMS := ms % 60_000
	if remainMS == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%.1fs", minutes, float64(remainMS)/1000.0)
}

// normalizeArgs routes bare file arguments to the gen subcommand.
func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	first := args[0]
	switch first {
	case "gen", "help", "completion", "version", "score", "catalog", "set", "update":
		return args
	}
	if first == "-h" || first == "--help" || first == "-v" || first == "--version" {
		return args
	}
	if !containsPositionalSource(args) {
		return args
	}
	return append([]string{"gen"}, args...)
}

var valueFlags = []string{"--config", "--out", "-o", "--concurrency", "--max-retries", "--provider", "--log-file"}

func containsPositionalSource(args []string) bool {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return i+1 < len(args)
		}
		if slices.Contains(valueFlags, arg) {
			i++
			continue
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return true
	}
	return false
}
