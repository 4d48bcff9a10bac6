package runner

import (
	"context"
	"errors"
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

// StoryboardRunner はバッチ分割されたシーン生成の実行と永続化を束ねる中核なのだ。
// バッチが1つ確定するたびに storyboard.json を書き出すので、途中で止まっても
// --resume でカーソル位置から再開できるのだよ。
type StoryboardRunner struct {
	opts      config.GenerateOptions
	source    *StorySource
	composer  *generator.StoryboardComposer
	parser    *parser.StoryboardParser
	publisher *publisher.StoryboardPublisher
}

// NewStoryboardRunner は StoryboardRunner を生成するのだ。
func NewStoryboardRunner(
	opts config.GenerateOptions,
	source *StorySource,
	composer *generator.StoryboardComposer,
	p *parser.StoryboardParser,
	pub *publisher.StoryboardPublisher,
) *StoryboardRunner {
	return &StoryboardRunner{
		opts:      opts,
		source:    source,
		composer:  composer,
		parser:    p,
		publisher: pub,
	}
}

// Run は台本からストーリーボードを生成（または再開）するのだ。
func (gr *StoryboardRunner) Run(ctx context.Context) error {
	roster := loadRosterIfPresent(ctx, gr.parser, gr.opts.OutputDir)
	store := domain.NewSceneStore()
	pubOpts := publisher.Options{OutputDir: gr.opts.OutputDir}

	var ctrl *generator.Controller
	ctrl = generator.NewController(gr.composer, store, roster, func(done, total int) {
		// バッチ確定ごとの永続化。ここで書いた JSON が再開時の唯一の情報源になる。
		if _, err := gr.publisher.SaveStoryboard(ctx, ctrl.Board(), pubOpts); err != nil {
			slog.WarnContext(ctx, "途中経過の保存に失敗しました", "completed", done, "total", total, "error", err)
		}
	})

	runErr := gr.execute(ctx, ctrl)

	// 成否にかかわらず最終状態を書き出す。最初のバッチで停止した場合でも
	// 設定と台本を含むボードが残り、--resume の起点になるのだ。
	if _, err := gr.publisher.SaveStoryboard(ctx, ctrl.Board(), pubOpts); err != nil {
		slog.WarnContext(ctx, "最終状態の保存に失敗しました", "error", err)
	}

	if runErr != nil {
		if pending := ctrl.Pending(); pending != nil {
			slog.WarnContext(ctx, "シーン生成を途中停止したのだ。--resume で続きから再開できるのだ",
				"start_scene", pending.StartScene,
				"count", pending.Count)
		}
		return fmt.Errorf("%s: %w", retry.UserMessage(runErr, "シーン生成"), runErr)
	}

	board := ctrl.Board()
	slog.InfoContext(ctx, "ストーリーボードが完成したのだ！",
		"scenes", len(board.Scenes),
		"total", board.TotalScenes)
	return nil
}

// execute は新規実行と再開のどちらかでコントローラーを走らせるのだ。
func (gr *StoryboardRunner) execute(ctx context.Context, ctrl *generator.Controller) error {
	if gr.opts.Resume {
		boardPath, err := asset.ResolveOutputPath(gr.opts.OutputDir, asset.DefaultStoryboardJson)
		if err != nil {
			return err
		}
		board, err := gr.parser.LoadStoryboard(ctx, boardPath)
		if err != nil {
			return fmt.Errorf("再開用ストーリーボードの読み込みに失敗したのだ: %w", err)
		}
		if err := ctrl.Load(*board); err != nil {
			return err
		}
		if ctrl.State() == generator.StateCompleted {
			slog.InfoContext(ctx, "ストーリーボードはすでに完成しているのだ", "scenes", len(board.Scenes))
			return nil
		}
		return ctrl.Resume(ctx)
	}

	screenplay, err := gr.source.Read(ctx, gr.opts)
	if err != nil {
		return err
	}
	if screenplay == "" {
		return errors.New("台本が空なのだ。先に script コマンドで台本を生成するか、--story-file を指定してほしいのだ")
	}

	return ctrl.Start(ctx, gr.opts.Title, screenplay, runConfigFromOptions(gr.opts))
}
