package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"occasion-listing/internal/config"
)

var (
	loadConfigForUpdate   = config.Load
	syncCatalogsForUpdate = config.SyncCatalogsFromCenter
)

func newUpdateCmd(stdout io.Writer, flags *genFlags) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:           "update",
		Short:         "更新本地资源",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	updateCmd.AddCommand(&cobra.Command{
		Use:           "catalogs",
		Short:         "清空本地目录缓存并从目录中心拉取最新版本",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			cfg, paths, err := loadConfigForUpdate(flags.configArg, cwd)
			if err != nil {
				return err
			}
			cfg.CatalogCenter.Enabled = true
			cfg.CatalogCenter.Release = "latest"
			cfg.CatalogCenter.Strict = true

			if err := os.RemoveAll(paths.ResolvedCatalogDir); err != nil {
				return fmt.Errorf("清理目录缓存失败：%w", err)
			}
			if err := os.Remove(paths.CatalogLockPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("清理目录锁失败：%w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res, err := syncCatalogsForUpdate(ctx, cfg, paths)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, firstNonEmpty(res.Version, "latest"))
			return nil
		},
	})
	return updateCmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
