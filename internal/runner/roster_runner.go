package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// RosterRunner は物語アイデアから登場要素一覧（キャラクター/小道具）を起案して保存するのだ。
// --variations 指定時は、保存済みの登場要素1件に対する外見デザイン代案の起案に切り替わるのだ。
type RosterRunner struct {
	opts      config.GenerateOptions
	source    *StorySource
	composer  *generator.StoryboardComposer
	parser    *parser.StoryboardParser
	publisher *publisher.StoryboardPublisher
}

// NewRosterRunner は RosterRunner を生成するのだ。
func NewRosterRunner(
	opts config.GenerateOptions,
	source *StorySource,
	composer *generator.StoryboardComposer,
	p *parser.StoryboardParser,
	pub *publisher.StoryboardPublisher,
) *RosterRunner {
	return &RosterRunner{
		opts:      opts,
		source:    source,
		composer:  composer,
		parser:    p,
		publisher: pub,
	}
}

// Run はアイデアの読み込み、一括起案、roster.json への保存までを一気に行うのだ。
func (rr *RosterRunner) Run(ctx context.Context) error {
	if rr.opts.VariationsFor != "" {
		return rr.runVariations(ctx)
	}

	idea, err := rr.source.Read(ctx, rr.opts)
	if err != nil {
		return err
	}
	if idea == "" {
		return fmt.Errorf("物語のアイデアが空なのだ。--story-file か --story-url を指定してほしいのだ")
	}

	cfg := runConfigFromOptions(rr.opts)
	roster, err := rr.composer.GenerateRoster(ctx, cfg, idea, rr.opts.CharacterCount, rr.opts.PropCount)
	if err != nil {
		return fmt.Errorf("%s: %w", retry.UserMessage(err, "登場要素の起案"), err)
	}

	path, err := rr.publisher.SaveRoster(ctx, roster, publisher.Options{OutputDir: rr.opts.OutputDir})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "登場要素一覧を保存したのだ",
		"count", len(roster),
		"path", path)
	return nil
}

// runVariations は保存済みロスターの要素1件に対し、外見デザイン代案を起案して保存するのだ。
// ロスター本体は書き換えないので、気に入った代案は description に手で貼り替えるのだよ。
func (rr *RosterRunner) runVariations(ctx context.Context) error {
	rosterPath, err := asset.ResolveOutputPath(rr.opts.OutputDir, asset.DefaultRosterJson)
	if err != nil {
		return err
	}
	roster, err := rr.parser.LoadRoster(ctx, rosterPath)
	if err != nil {
		return fmt.Errorf("登場要素一覧の読み込みに失敗したのだ。先に roster コマンドで起案してほしいのだ: %w", err)
	}

	entity := roster.FindByRef(rr.opts.VariationsFor)
	if entity == nil {
		return fmt.Errorf("登場要素 '%s' が %s に見つからないのだ", rr.opts.VariationsFor, rosterPath)
	}

	cfg := runConfigFromOptions(rr.opts)
	variations, err := rr.composer.GenerateEntityVariations(ctx, cfg, *entity, config.DefaultVariationCount)
	if err != nil {
		return fmt.Errorf("%s: %w", retry.UserMessage(err, "デザイン代案の起案"), err)
	}

	path, err := rr.publisher.SaveVariations(ctx, *entity, variations, publisher.Options{OutputDir: rr.opts.OutputDir})
	if err != nil {
		return err
	}

	for i, v := range variations {
		slog.InfoContext(ctx, "デザイン代案なのだ", "no", i+1, "title", v.Title)
	}
	slog.InfoContext(ctx, "デザイン代案を保存したのだ", "entity", entity.ShortID, "count", len(variations), "path", path)
	return nil
}
