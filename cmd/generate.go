package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、台本からストーリーボード（タイムコード付きシーン列）を生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "台本から8秒刻みのストーリーボードを生成するのだ。",
	Long: `台本を20シーンずつのバッチに分けて Veo 向けプロンプトへ展開し、storyboard.json に保存するのだ。
バッチが確定するたびに途中経過を書き出すので、クォータ切れで止まっても --resume で続きから再開できるのだよ。`,
	RunE: generateCommand,
}

func init() {
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 再開時は storyboard.json が入力なので、ソース指定は新規実行時だけ必須なのだ
	if !opts.Resume && opts.StoryURL == "" && opts.StoryFile == "" {
		if isStdin() {
			opts.StoryFile = "-"
		} else if !cmd.Flags().Changed("story-file") {
			// script コマンドの既定の出力先をそのまま入力にする
			opts.StoryFile = opts.OutputDir + "/" + config.DefaultScreenplayName
		}
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("ストーリーボード生成パイプラインを起動するのだ！",
		"duration_sec", opts.DurationSeconds,
		"style", opts.Style,
		"text_model", cfg.GeminiModel,
		"resume", opts.Resume,
		"output_dir", opts.OutputDir)

	if err := pipeline.ExecuteGenerate(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
