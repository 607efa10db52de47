package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/logging"
	"github.com/research-patron/post-analyze/pkg/util"
)

func NewRootCommand() *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "post-analyze",
		Short: "生成コンテンツの後処理パイプライン",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(debug)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "デバッグログを有効にする")

	rootCmd.AddCommand(NewAnalyzeCommand())
	rootCmd.AddCommand(NewStatsCommand())

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		zap.S().Info("'analyze' または 'stats' サブコマンドを使用してください")
		_ = cmd.Help()
	}
	rootCmd.Version = util.GetVersion().Version
	return rootCmd
}
