package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// imageCmd は、保存済みストーリーボードを読み込んでシーン静止画を生成するサブコマンドなのだ。
// テキスト生成をスキップして、画像の再生成や調整だけを行いたい場合に便利なのだ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "ストーリーボードのシーン静止画を生成して保存するのだ。",
	Long: `storyboard.json を読み込み、シーンのプレビュー画像を生成するのだ。
--scene で1シーンだけ、--all で未生成分の一括埋め、--entity で登場要素の
参照アセット生成ができるのだよ。登場要素に参照画像があれば、最大3枚まで
シーン画像の一貫性維持に使われるのだ。`,
	Example: `  ap-storyboard-go image --scene 3
  ap-storyboard-go image --all
  ap-storyboard-go image --entity an`,
	RunE: imageCommand,
}

// init は、image コマンドに必要なフラグを定義し、コマンド体系に登録するための初期化関数なのだ。
func init() {
}

// imageCommand は、image サブコマンドの実行ロジック本体なのだ。
func imageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.EntityID == "" && !opts.RenderAll && opts.SceneIndex <= 0 {
		return fmt.Errorf("--scene、--all、--entity のいずれかを指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("画像生成モードを起動するのだ！",
		"scene", opts.SceneIndex,
		"all", opts.RenderAll,
		"entity", opts.EntityID,
		"image_model", cfg.GeminiImageModel,
		"output_dir", opts.OutputDir)

	return pipeline.ExecuteImage(ctx, cfg)
}
