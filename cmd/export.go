package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// exportCmd は、保存済みストーリーボードをエクスポート成果物一式へ変換するのだ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "ストーリーボードからプロンプト一覧・プレビュー・画像ZIPを書き出すのだ。",
	Long: `storyboard.json を読み込み、動画生成ツールへ貼り付けるためのプロンプト一覧（prompts.txt）、
Markdown/HTML のプレビュー、生成済みシーン画像の ZIP をまとめて書き出すのだ。
AI クライアントは使わないので、API キーなしで実行できるのだよ。`,
	RunE: exportCommand,
}

func init() {
}

func exportCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("エクスポートモードを起動するのだ！", "output_dir", opts.OutputDir)

	if err := pipeline.ExecuteExport(ctx, cfg); err != nil {
		return fmt.Errorf("エクスポート中にエラーが発生したのだ: %w", err)
	}

	slog.Info("エクスポートが完了したのだ！")
	return nil
}
