package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"occasion-listing/internal/config"
	"occasion-listing/internal/report"
)

var loadConfigForCatalog = config.Load

func newCatalogCmd(stdout io.Writer, flags *genFlags) *cobra.Command {
	return &cobra.Command{
		Use:           "catalog [occasions|tones|locales]",
		Short:         "列出目录中的场景、语气与站点",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     []string{"occasions", "tones", "locales"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			_, paths, err := loadConfigForCatalog(flags.configArg, cwd)
			if err != nil {
				return err
			}
			cat, err := config.LoadCatalog(paths)
			if err != nil {
				return err
			}
			p := report.NewPrinter(stdout, report.ColorsEnabled())
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}
			switch which {
			case "occasions":
				return p.Occasions(cat.Occasions.All())
			case "tones":
				return p.Tones(cat.Tones.All())
			case "locales":
				return p.Locales(cat.Locales.All())
			case "all":
				if err := p.Occasions(cat.Occasions.All()); err != nil {
					return err
				}
				if err := p.Tones(cat.Tones.All()); err != nil {
					return err
				}
				return p.Locales(cat.Locales.All())
			default:
				return fmt.Errorf("未知目录类型：%s（可选 occasions/tones/locales）", which)
			}
		},
	}
}
