package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/retry"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// ScreenplayRunner は物語アイデアと登場要素一覧から台本（スクリーンプレイ）を生成するのだ。
type ScreenplayRunner struct {
	opts     config.GenerateOptions
	source   *StorySource
	composer *generator.StoryboardComposer
	parser   *parser.StoryboardParser
	writer   remoteio.OutputWriter
}

// NewScreenplayRunner は ScreenplayRunner を生成するのだ。
func NewScreenplayRunner(
	opts config.GenerateOptions,
	source *StorySource,
	composer *generator.StoryboardComposer,
	p *parser.StoryboardParser,
	writer remoteio.OutputWriter,
) *ScreenplayRunner {
	return &ScreenplayRunner{
		opts:     opts,
		source:   source,
		composer: composer,
		parser:   p,
		writer:   writer,
	}
}

// Run はアイデアの読み込み、（任意で）磨き直し、台本生成、保存までを実行するのだ。
func (sr *ScreenplayRunner) Run(ctx context.Context) error {
	idea, err := sr.source.Read(ctx, sr.opts)
	if err != nil {
		return err
	}
	if idea == "" {
		return fmt.Errorf("物語のアイデアが空なのだ。--story-file か --story-url を指定してほしいのだ")
	}

	roster := loadRosterIfPresent(ctx, sr.parser, sr.opts.OutputDir)
	cfg := runConfigFromOptions(sr.opts)

	if sr.opts.Refine {
		refined, err := sr.composer.RefineIdea(ctx, cfg, roster, idea)
		if err != nil {
			return fmt.Errorf("%s: %w", retry.UserMessage(err, "アイデアの磨き直し"), err)
		}
		slog.InfoContext(ctx, "アイデアを磨き直したのだ", "before_len", len(idea), "after_len", len(refined))
		idea = refined
	}

	screenplay, err := sr.composer.GenerateScreenplay(ctx, cfg, roster, idea)
	if err != nil {
		return fmt.Errorf("%s: %w", retry.UserMessage(err, "台本生成"), err)
	}

	fullPath, err := asset.ResolveOutputPath(sr.opts.OutputDir, config.DefaultScreenplayName)
	if err != nil {
		return err
	}
	if err := sr.writer.Write(ctx, fullPath, strings.NewReader(screenplay), "text/markdown; charset=utf-8"); err != nil {
		return fmt.Errorf("台本の保存に失敗したのだ (%s): %w", fullPath, err)
	}

	slog.InfoContext(ctx, "台本を保存したのだ", "path", fullPath, "length", len(screenplay))
	return nil
}

// loadRosterIfPresent は roster.json があれば読み込み、無ければ空の一覧で続行するのだ。
// 登場要素一覧は品質を上げる追加情報であって、必須入力ではないのだよ。
func loadRosterIfPresent(ctx context.Context, p *parser.StoryboardParser, outputDir string) domain.Roster {
	fullPath, err := asset.ResolveOutputPath(outputDir, asset.DefaultRosterJson)
	if err != nil {
		slog.WarnContext(ctx, "登場要素一覧のパス解決に失敗しました", "error", err)
		return domain.Roster{}
	}
	roster, err := p.LoadRoster(ctx, fullPath)
	if err != nil {
		slog.InfoContext(ctx, "登場要素一覧なしで続行するのだ", "path", fullPath, "reason", err)
		return domain.Roster{}
	}
	return roster
}
