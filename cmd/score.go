package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"occasion-listing/internal/app"
	"occasion-listing/internal/report"
)

func newScoreCmd(stdout io.Writer, flags *genFlags) *cobra.Command {
	var productArg, completionArg string
	var strict, asMarkdown bool
	cmd := &cobra.Command{
		Use:           "score",
		Short:         "离线评分：对已保存的生成结果执行组装、本地化校验与评分",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			res, err := app.ScoreCompletion(app.ScoreOptions{
				ProductPath:    productArg,
				CompletionPath: completionArg,
				ConfigPath:     flags.configArg,
				CWD:            cwd,
			})
			if err != nil {
				return err
			}
			if asMarkdown {
				fmt.Fprint(stdout, report.RenderMarkdown(res.Document))
			} else {
				p := report.NewPrinter(stdout, report.ColorsEnabled())
				if err := p.Score(res.Prepared.Product.Name, res.Document.Score); err != nil {
					return err
				}
			}
			if strict && !res.Document.Score.Pass {
				return fmt.Errorf("评分未达标：%s", res.Document.Score.Summary())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&productArg, "product", "", "产品简报文件")
	cmd.Flags().StringVar(&completionArg, "completion", "", "已保存的模型输出文件")
	cmd.Flags().BoolVar(&strict, "strict", false, "未达到及格线时返回非零退出码")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "输出 Markdown 报告而不是表格")
	return cmd
}
