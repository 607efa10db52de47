package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewStatsCommand() *cobra.Command {
	var (
		configFilePath string
		siteID         string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "生成履歴の集計を表示する",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, errs := loadConfig(configFilePath)
			if len(errs) > 0 {
				zap.S().Errorf("設定の検証エラー:%s", errors.Join(errs...))
				return
			}

			pipeline, persistence, err := buildPipeline(cfg)
			if err != nil {
				zap.S().Errorf("パイプラインの初期化に失敗:%s", err.Error())
				return
			}
			defer persistence.Close()

			stats := pipeline.History().ComputeStats(siteID)

			zap.S().Infof("プロンプト総数: %d（うち記事化済み %d）", stats.TotalPrompts, stats.SuccessfulPrompts)
			zap.S().Infof("作成記事数: %d", stats.TotalArticles)
			zap.S().Infof("平均 SEO スコア: %.1f", stats.AverageSeoScore)
			zap.S().Infof("平均文字数: %.0f", stats.AverageWordCount)
			zap.S().Infof("総トークン: %d / 総コスト: $%.4f", stats.TotalTokens, stats.TotalCost)

			for name, ms := range stats.ByModel {
				zap.S().Infof("モデル %s: %d 回, 平均処理時間 %.0fms, 平均コスト $%.4f, 平均スコア %.1f",
					name, ms.Count, ms.AvgProcessingTime, ms.AvgCost, ms.AvgScore)
			}
			for month, ms := range stats.ByMonth {
				zap.S().Infof("%s: プロンプト %d / 記事 %d / トークン %d / コスト $%.4f",
					month, ms.Prompts, ms.Articles, ms.Tokens, ms.Cost)
			}
		},
	}

	cmd.Flags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "設定ファイルのパス")
	cmd.Flags().StringVarP(&siteID, "site", "s", "", "サイト ID で絞り込む")
	return cmd
}
