package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"occasion-listing/internal/config"
)

func newSetCmd(flags *genFlags) *cobra.Command {
	setCmd := &cobra.Command{
		Use:           "set",
		Short:         "写入本地设置",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	setCmd.AddCommand(&cobra.Command{
		Use:           "key <api_key>",
		Short:         "把当前 provider 的 API Key 写入 ~/.occasion-listing/.env",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("API Key 不能为空")
			}
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			cfg, paths, err := config.Load(flags.configArg, cwd)
			if err != nil {
				return err
			}
			if p := strings.TrimSpace(flags.providerArg); p != "" {
				cfg.Provider = strings.ToLower(p)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return config.UpsertEnvVar(paths.EnvPath, cfg.ProviderAPIKeyEnv(), key)
		},
	})
	return setCmd
}
