package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// EditRunner は保存済みストーリーボードのシーンプロンプトを書き換えるのだ。
// 画像の再生成前にプロンプトだけ手直ししたいときに使うのだよ。
type EditRunner struct {
	opts      config.GenerateOptions
	parser    *parser.StoryboardParser
	publisher *publisher.StoryboardPublisher
}

// NewEditRunner は EditRunner を生成するのだ。
func NewEditRunner(
	opts config.GenerateOptions,
	p *parser.StoryboardParser,
	pub *publisher.StoryboardPublisher,
) *EditRunner {
	return &EditRunner{
		opts:      opts,
		parser:    p,
		publisher: pub,
	}
}

// Run はプロンプト差し替えの本体なのだ。
func (er *EditRunner) Run(ctx context.Context) error {
	if er.opts.SceneIndex <= 0 {
		return fmt.Errorf("書き換えるシーンを --scene で指定してほしいのだ")
	}
	prompt := strings.TrimSpace(er.opts.PromptText)
	if prompt == "" {
		return fmt.Errorf("差し替えるプロンプトを --prompt で指定してほしいのだ")
	}

	boardPath, err := asset.ResolveOutputPath(er.opts.OutputDir, asset.DefaultStoryboardJson)
	if err != nil {
		return err
	}
	board, err := er.parser.LoadStoryboard(ctx, boardPath)
	if err != nil {
		return fmt.Errorf("ストーリーボードの読み込みに失敗したのだ。先に generate コマンドで生成してほしいのだ: %w", err)
	}

	store := domain.NewSceneStore()
	store.Replace(board.Scenes)
	if !store.SetPrompt(er.opts.SceneIndex, prompt) {
		return fmt.Errorf("シーン %d が見つからないのだ（全 %d シーン）", er.opts.SceneIndex, store.Len())
	}
	board.Scenes = store.Scenes()

	path, err := er.publisher.SaveStoryboard(ctx, *board, publisher.Options{OutputDir: er.opts.OutputDir})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "シーンプロンプトを書き換えたのだ",
		"scene", er.opts.SceneIndex,
		"path", path)
	return nil
}
