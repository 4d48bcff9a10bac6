package runner

import (
	"context"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// ExportRunner は保存済みストーリーボードをエクスポート成果物一式に変換するのだ。
// プロンプト一覧（動画生成ツールへの貼り付け用）、Markdown/HTML プレビュー、
// 生成済みシーン画像の ZIP をまとめて書き出すのだよ。
type ExportRunner struct {
	opts      config.GenerateOptions
	parser    *parser.StoryboardParser
	publisher *publisher.StoryboardPublisher
	reader    remoteio.InputReader
}

// NewExportRunner は ExportRunner を生成するのだ。
func NewExportRunner(
	opts config.GenerateOptions,
	p *parser.StoryboardParser,
	pub *publisher.StoryboardPublisher,
	reader remoteio.InputReader,
) *ExportRunner {
	return &ExportRunner{
		opts:      opts,
		parser:    p,
		publisher: pub,
		reader:    reader,
	}
}

// Run はエクスポート処理の本体なのだ。
func (er *ExportRunner) Run(ctx context.Context) error {
	boardPath, err := asset.ResolveOutputPath(er.opts.OutputDir, asset.DefaultStoryboardJson)
	if err != nil {
		return err
	}
	board, err := er.parser.LoadStoryboard(ctx, boardPath)
	if err != nil {
		return err
	}

	pubOpts := publisher.Options{OutputDir: er.opts.OutputDir, InlineImages: er.opts.InlineImages}
	result, err := er.publisher.Publish(ctx, *board, er.reader, pubOpts)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "エクスポートが完了したのだ",
		"prompts", result.PromptsPath,
		"markdown", result.MarkdownPath,
		"html", result.HTMLPath)

	// 画像 ZIP は生成済みシーンがある場合だけ作る。ゼロ件はエラーではなくスキップなのだ。
	zipPath, err := er.publisher.ExportImagesZip(ctx, *board, er.reader, pubOpts)
	if err != nil {
		slog.WarnContext(ctx, "画像ZIPの作成をスキップしたのだ", "reason", err)
		return nil
	}
	slog.InfoContext(ctx, "画像ZIPを書き出したのだ", "path", zipPath)
	return nil
}
