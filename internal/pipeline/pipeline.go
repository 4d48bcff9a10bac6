// Package pipeline は各サブコマンドの実行フローを配線するのだ。
// 部品の構築は internal/builder、処理本体は internal/runner に任せるのだよ。
package pipeline

import (
	"context"
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
)

// ExecuteRoster は登場要素一覧の起案（roster コマンド）を実行するのだ。
func ExecuteRoster(ctx context.Context, cfg *config.Config) error {
	appCtx, source, composer, err := setupGeneration(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	return runner.NewRosterRunner(appCtx.Options, source, composer, builder.BuildParser(appCtx), pub).Run(ctx)
}

// ExecuteScript は台本生成（script コマンド）を実行するのだ。
func ExecuteScript(ctx context.Context, cfg *config.Config) error {
	appCtx, source, composer, err := setupGeneration(ctx, cfg)
	if err != nil {
		return err
	}

	r := runner.NewScreenplayRunner(appCtx.Options, source, composer, builder.BuildParser(appCtx), appCtx.Writer)
	return r.Run(ctx)
}

// ExecuteGenerate はストーリーボード生成（generate コマンド）を実行するのだ。
func ExecuteGenerate(ctx context.Context, cfg *config.Config) error {
	appCtx, source, composer, err := setupGeneration(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	r := runner.NewStoryboardRunner(appCtx.Options, source, composer, builder.BuildParser(appCtx), pub)
	return r.Run(ctx)
}

// ExecuteImage はシーン静止画の生成（image コマンド）を実行するのだ。
func ExecuteImage(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	composer, err := builder.BuildComposer(appCtx)
	if err != nil {
		return err
	}
	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	r := runner.NewFrameRunner(appCtx.Options, composer, builder.BuildParser(appCtx), pub, appCtx.Writer)
	return r.Run(ctx)
}

// ExecuteEdit はシーンプロンプトの書き換え（edit コマンド）を実行するのだ。
// export と同じく AI クライアントは不要なのだ。
func ExecuteEdit(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	return runner.NewEditRunner(appCtx.Options, builder.BuildParser(appCtx), pub).Run(ctx)
}

// ExecuteExport はエクスポート一式の書き出し（export コマンド）を実行するのだ。
// 生成系と違って AI クライアントは不要なので、コンポーザーは組み立てないのだ。
func ExecuteExport(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := builder.BuildPublisher(appCtx)
	if err != nil {
		return err
	}

	r := runner.NewExportRunner(appCtx.Options, builder.BuildParser(appCtx), pub, appCtx.Reader)
	return r.Run(ctx)
}

// setupGeneration は生成系コマンド共通の部品一式を組み立てるのだ。
func setupGeneration(ctx context.Context, cfg *config.Config) (*builder.AppContext, *runner.StorySource, *generator.StoryboardComposer, error) {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("アプリケーションコンテキストの初期化に失敗したのだ: %w", err)
	}

	extractor, err := builder.BuildExtractor(appCtx)
	if err != nil {
		return nil, nil, nil, err
	}
	source := runner.NewStorySource(extractor, appCtx.Reader)

	composer, err := builder.BuildComposer(appCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	return appCtx, source, composer, nil
}
