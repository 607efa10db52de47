package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/research-patron/post-analyze/pkg/model"
	"github.com/research-patron/post-analyze/pkg/service"
	"github.com/research-patron/post-analyze/pkg/signals"
)

func NewAnalyzeCommand() *cobra.Command {
	var (
		configFilePath string
		inputPath      string
		modelID        string
		prompt         string
		siteID         string
		tokensUsed     int
		estimatedCost  float64
		keywords       []string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "生成応答を解析・スコアリングして履歴に記録する",
		Long:  "生成モデルの応答テキストをファイルから読み込み、構造化・SEO スコアリングを行って履歴ストアに保存する",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, errs := loadConfig(configFilePath)
			if len(errs) > 0 {
				zap.S().Errorf("設定の検証エラー:%s", errors.Join(errs...))
				return
			}

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				zap.S().Errorf("入力ファイルの読み込みに失敗:%s", err.Error())
				return
			}

			ctx := signals.SetupSignalHandler()

			pipeline, persistence, err := buildPipeline(cfg)
			if err != nil {
				zap.S().Errorf("パイプラインの初期化に失敗:%s", err.Error())
				return
			}
			defer persistence.Close()

			if err := pipeline.Admit(modelID, tokensUsed); err != nil {
				if errors.Is(err, service.ErrRateLimitExceeded) {
					zap.S().Warnf("モデル %s は現在レート制限中です。しばらく待ってから再実行してください", modelID)
					return
				}
				zap.S().Errorf("流量確認に失敗:%s", err.Error())
				return
			}

			req := model.GenerationRequest{
				Model:          modelID,
				OriginalPrompt: prompt,
				UserInput:      prompt,
				SiteID:         siteID,
				TokensUsed:     tokensUsed,
				EstimatedCost:  estimatedCost,
			}

			result, err := pipeline.Process(ctx, req, string(raw), keywords)
			if err != nil {
				zap.S().Errorf("後処理に失敗:%s", err.Error())
				return
			}

			zap.S().Infof("レコード %s を保存しました", result.Record.ID)
			zap.S().Infof("タイトル: %s", result.Suggestion.PrimaryTitle())
			zap.S().Infof("見出し数: %d", len(result.Suggestion.Structure.Headings))
			zap.S().Infof("総合スコア: %d (タイトル %d / メタ %d / 構成 %d / キーワード %d)",
				result.Metrics.OverallScore,
				result.Metrics.TitleScore,
				result.Metrics.MetaDescriptionScore,
				result.Metrics.ContentStructureScore,
				result.Metrics.KeywordOptimizationScore,
			)
			for _, rec := range result.Metrics.Recommendations {
				zap.S().Infof("改善提案: %s", rec)
			}
		},
	}

	cmd.Flags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "設定ファイルのパス")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "生成応答テキストのファイルパス")
	cmd.Flags().StringVarP(&modelID, "model", "m", "gemini-2.0-flash", "生成に使用したモデル ID")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "生成時のプロンプト")
	cmd.Flags().StringVarP(&siteID, "site", "s", "", "対象サイト ID")
	cmd.Flags().IntVar(&tokensUsed, "tokens", 0, "消費トークン数")
	cmd.Flags().Float64Var(&estimatedCost, "cost", 0, "推定コスト（USD）")
	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", nil, "ターゲットキーワード（複数指定可）")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
