// Package publisher は生成済みストーリーボードの永続化とエクスポート
// （JSON・プロンプト一覧・Markdown・HTML・ZIP）を担います。
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/shouni/go-text-format/pkg/md2htmlrunner"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
// remoteio.OutputWriter が満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, data io.Reader, mimeType string) error
}

// Options はエクスポート動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// InlineImages が真の場合、Markdown/HTML プレビューのシーン画像を
	// data URI として埋め込み、単体で持ち運べるファイルにします。
	InlineImages bool
}

// PublishResult はエクスポート処理で生成されたファイルの情報を保持します。
type PublishResult struct {
	StoryboardPath string // storyboard.json のパス
	PromptsPath    string // prompts.txt のパス
	MarkdownPath   string // storyboard.md のパス
	HTMLPath       string // 生成された HTML のパス
}

// StoryboardPublisher は成果物の永続化とフォーマット変換を担います。
type StoryboardPublisher struct {
	writer     OutputWriter
	htmlRunner md2htmlrunner.Runner
}

// NewStoryboardPublisher は指定された writer と HTML ランナーで新しいインスタンスを生成します。
// htmlRunner が nil の場合、HTML 出力はスキップされます。
func NewStoryboardPublisher(writer OutputWriter, htmlRunner md2htmlrunner.Runner) *StoryboardPublisher {
	return &StoryboardPublisher{
		writer:     writer,
		htmlRunner: htmlRunner,
	}
}

// SaveStoryboard はストーリーボードを JSON で永続化します。
// バッチ確定のたびに呼ばれる想定で、途中停止後の再開はこのファイルから行われるのだ。
func (p *StoryboardPublisher) SaveStoryboard(ctx context.Context, board domain.Storyboard, opts Options) (string, error) {
	fullPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultStoryboardJson)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ストーリーボードのJSON化に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, fullPath, strings.NewReader(string(data)), "application/json; charset=utf-8"); err != nil {
		return "", fmt.Errorf("ストーリーボードの書き込みに失敗しました (%s): %w", fullPath, err)
	}
	return fullPath, nil
}

// SaveRoster は登場要素一覧を JSON で永続化します。
func (p *StoryboardPublisher) SaveRoster(ctx context.Context, roster domain.Roster, opts Options) (string, error) {
	fullPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultRosterJson)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return "", fmt.Errorf("登場要素一覧のJSON化に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, fullPath, strings.NewReader(string(data)), "application/json; charset=utf-8"); err != nil {
		return "", fmt.Errorf("登場要素一覧の書き込みに失敗しました (%s): %w", fullPath, err)
	}
	return fullPath, nil
}

// SaveVariations は登場要素の外見デザイン代案を JSON で永続化します。
// ファイル名は variations_<short_id>.json で、ロスター本体は変更しません。
func (p *StoryboardPublisher) SaveVariations(ctx context.Context, e domain.Entity, variations []domain.EntityVariation, opts Options) (string, error) {
	fullPath, err := asset.ResolveOutputPath(opts.OutputDir, fmt.Sprintf("variations_%s.json", e.ShortID))
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(variations, "", "  ")
	if err != nil {
		return "", fmt.Errorf("デザイン代案のJSON化に失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, fullPath, strings.NewReader(string(data)), "application/json; charset=utf-8"); err != nil {
		return "", fmt.Errorf("デザイン代案の書き込みに失敗しました (%s): %w", fullPath, err)
	}
	return fullPath, nil
}

// Publish はプロンプト一覧・Markdown・HTML を一括して書き出し、生成されたファイル情報を返すのだ。
// storyboard.json は常に元のパスのまま保存し、プレビュー側だけ相対パス変換や
// data URI 埋め込み（opts.InlineImages）を適用します。reader は InlineImages の
// ときだけ使われ、nil なら埋め込みはスキップされます。
func (p *StoryboardPublisher) Publish(ctx context.Context, board domain.Storyboard, reader InputReader, opts Options) (PublishResult, error) {
	result := PublishResult{}

	boardPath, err := p.SaveStoryboard(ctx, board, opts)
	if err != nil {
		return result, err
	}
	result.StoryboardPath = boardPath

	// プロンプト一覧（動画生成ツールへ貼り付ける用のプレーンテキスト）
	promptsPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultPromptsName)
	if err != nil {
		return result, err
	}
	promptsText := BuildPromptsText(board)
	if err := p.writer.Write(ctx, promptsPath, strings.NewReader(promptsText), "text/plain; charset=utf-8"); err != nil {
		return result, fmt.Errorf("プロンプト一覧の書き込みに失敗しました: %w", err)
	}
	result.PromptsPath = promptsPath

	// Markdown
	markdownPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultStoryboardName)
	if err != nil {
		return result, err
	}
	previewBoard := board
	if opts.InlineImages && reader != nil {
		previewBoard = InlineSceneImages(ctx, board, reader)
	} else {
		previewBoard = relativizeImagePaths(board, markdownPath)
	}
	content := BuildMarkdown(previewBoard)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	// HTML変換と保存
	if p.htmlRunner != nil {
		slog.Info("ストーリーボードをHTMLに変換しています", "title", board.Title)
		htmlBuffer, err := p.htmlRunner.Run(ctx, board.Title, []byte(content))
		if err != nil {
			return result, fmt.Errorf("HTMLの変換に失敗しました: %w", err)
		}

		htmlPath := strings.TrimSuffix(markdownPath, filepath.Ext(markdownPath)) + ".html"
		if err := p.writer.Write(ctx, htmlPath, htmlBuffer, "text/html; charset=utf-8"); err != nil {
			return result, fmt.Errorf("HTMLファイルの書き込みに失敗しました: %w", err)
		}
		result.HTMLPath = htmlPath
	}

	return result, nil
}
