package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// scriptCmd は、台本（スクリーンプレイ）の生成のみを実行するのだ。
var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "アイデアと登場要素一覧から台本を生成して保存するのだ。",
	Long: `物語のアイデアを5幕構成の台本へ展開し、screenplay.md に出力するのだ。
roster.json があれば登場要素を一貫した名前で織り込むのだよ。--refine を付けると
台本化の前にアイデア自体をバイラル向けに磨き直すのだ。`,
	RunE: scriptCommand,
}

func init() {
}

func scriptCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.StoryURL == "" && opts.StoryFile == "" {
		if !isStdin() {
			return fmt.Errorf("ソース（--story-url または --story-file）を指定してほしいのだ")
		}
		opts.StoryFile = "-"
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("台本生成モードを起動するのだ！",
		"refine", opts.Refine,
		"dialogue_language", opts.DialogueLanguage,
		"text_model", cfg.GeminiModel,
		"output_dir", opts.OutputDir)

	if err := pipeline.ExecuteScript(ctx, cfg); err != nil {
		return fmt.Errorf("台本生成中にエラーが発生したのだ: %w", err)
	}

	slog.Info("台本の生成が完了したのだ！")
	return nil
}
