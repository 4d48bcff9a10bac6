package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// rosterCmd は、登場要素一覧（キャラクター/小道具）の起案のみを実行するのだ。
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "物語のアイデアから登場要素一覧（JSON）を起案して保存するのだ。",
	Long: `アイデアの文章を解析し、キャラクターと小道具の一覧（名前、short_id、種別、ビジュアル説明）を
roster.json に出力するのだ。出力は手で編集してから次の工程に渡せるのだよ。
--variations <short_id> を指定すると、保存済みの要素1件に対する外見デザイン代案を
variations_<short_id>.json に起案するのだ。`,
	RunE: rosterCommand,
}

func init() {
}

func rosterCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// --variations は保存済みロスターだけを入力にするので、ソース指定は不要なのだ
	if opts.VariationsFor == "" && opts.StoryURL == "" && opts.StoryFile == "" {
		if !isStdin() {
			return fmt.Errorf("ソース（--story-url または --story-file）を指定してほしいのだ")
		}
		opts.StoryFile = "-"
	}

	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.Options = opts

	slog.Info("登場要素の起案モードを起動するのだ！",
		"characters", opts.CharacterCount,
		"props", opts.PropCount,
		"text_model", cfg.GeminiModel,
		"output_dir", opts.OutputDir)

	if err := pipeline.ExecuteRoster(ctx, cfg); err != nil {
		return fmt.Errorf("登場要素の起案中にエラーが発生したのだ: %w", err)
	}

	slog.Info("登場要素一覧の起案が完了したのだ！")
	return nil
}
