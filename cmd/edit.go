package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// editCmd は、保存済みストーリーボードのシーンプロンプトを書き換えるのだ。
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "保存済みシーンの画像プロンプトを書き換えるのだ。",
	Long: `storyboard.json の指定シーンのプロンプト本文を差し替えて保存し直すのだ。
書き換えたあとに image --scene で画像を再生成すると、新しいプロンプトが使われるのだよ。
AI クライアントは使わないので、API キーなしで実行できるのだ。`,
	Example: `  ap-storyboard-go edit --scene 3 --prompt "(an) close-up, rain on the window"`,
	RunE:    editCommand,
}

func init() {
}

func editCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("プロンプト編集モードを起動するのだ！",
		"scene", opts.SceneIndex,
		"output_dir", opts.OutputDir)

	if err := pipeline.ExecuteEdit(ctx, cfg); err != nil {
		return fmt.Errorf("プロンプトの書き換え中にエラーが発生したのだ: %w", err)
	}

	slog.Info("プロンプトの書き換えが完了したのだ！")
	return nil
}
