package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// FrameRunner は保存済みストーリーボードを読み込み、シーン静止画の生成を実行するのだ。
// 1シーン指定・未生成分の一括埋め・登場要素の参照アセット生成の3モードを持つのだよ。
type FrameRunner struct {
	opts      config.GenerateOptions
	composer  *generator.StoryboardComposer
	parser    *parser.StoryboardParser
	publisher *publisher.StoryboardPublisher
	writer    generator.OutputWriter
}

// NewFrameRunner は FrameRunner を生成するのだ。
func NewFrameRunner(
	opts config.GenerateOptions,
	composer *generator.StoryboardComposer,
	p *parser.StoryboardParser,
	pub *publisher.StoryboardPublisher,
	writer generator.OutputWriter,
) *FrameRunner {
	return &FrameRunner{
		opts:      opts,
		composer:  composer,
		parser:    p,
		publisher: pub,
		writer:    writer,
	}
}

// Run はモードに応じて画像生成を実行し、更新されたストーリーボードを保存し直すのだ。
func (fr *FrameRunner) Run(ctx context.Context) error {
	roster := loadRosterIfPresent(ctx, fr.parser, fr.opts.OutputDir)
	pubOpts := publisher.Options{OutputDir: fr.opts.OutputDir}

	// 登場要素アセットの生成はストーリーボード不要で完結する
	if fr.opts.EntityID != "" {
		return fr.renderEntityAsset(ctx, roster, pubOpts)
	}

	boardPath, err := asset.ResolveOutputPath(fr.opts.OutputDir, asset.DefaultStoryboardJson)
	if err != nil {
		return err
	}
	board, err := fr.parser.LoadStoryboard(ctx, boardPath)
	if err != nil {
		return fmt.Errorf("ストーリーボードの読み込みに失敗したのだ。先に generate を実行してほしいのだ: %w", err)
	}

	store := domain.NewSceneStore()
	store.Replace(board.Scenes)
	renderer := generator.NewFrameRenderer(fr.composer, store, roster, board.Config, fr.writer, fr.opts.OutputDir)

	runErr := fr.render(ctx, renderer)

	// 生成済み画像のパスを取り込んだ状態で保存し直す。途中失敗でも成果は残すのだ。
	board.Scenes = store.Scenes()
	if _, err := fr.publisher.SaveStoryboard(ctx, *board, pubOpts); err != nil {
		slog.WarnContext(ctx, "画像パス反映後の保存に失敗しました", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("%s: %w", retry.UserMessage(runErr, "シーン画像生成"), runErr)
	}
	return nil
}

func (fr *FrameRunner) render(ctx context.Context, renderer *generator.FrameRenderer) error {
	if fr.opts.RenderAll {
		return renderer.RenderAll(ctx)
	}

	if fr.opts.SceneIndex <= 0 {
		return fmt.Errorf("生成するシーン番号（--scene）か --all を指定してほしいのだ")
	}
	path, err := renderer.RenderScene(ctx, fr.opts.SceneIndex, fr.opts.RefOverride)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "シーン画像を生成したのだ", "scene", fr.opts.SceneIndex, "path", path)
	return nil
}

// renderEntityAsset は登場要素1件の参照画像を生成し、roster.json を更新するのだ。
func (fr *FrameRunner) renderEntityAsset(ctx context.Context, roster domain.Roster, pubOpts publisher.Options) error {
	store := domain.NewSceneStore()
	cfg := runConfigFromOptions(fr.opts)
	renderer := generator.NewFrameRenderer(fr.composer, store, roster, cfg, fr.writer, fr.opts.OutputDir)

	path, err := renderer.RenderEntityAsset(ctx, roster, fr.opts.EntityID, fr.opts.Style)
	if err != nil {
		return fmt.Errorf("%s: %w", retry.UserMessage(err, "参照アセット生成"), err)
	}

	if _, err := fr.publisher.SaveRoster(ctx, roster, pubOpts); err != nil {
		return fmt.Errorf("登場要素一覧の更新保存に失敗したのだ: %w", err)
	}

	slog.InfoContext(ctx, "参照アセットを生成したのだ", "entity", fr.opts.EntityID, "path", path)
	return nil
}
