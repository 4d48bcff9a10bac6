// Package generator はストーリーボード生成のコアです。テキスト生成（登場要素・脚本・
// シーン分割）と画像生成（参照アセット・シーン静止画）を、キーローテーション付きの
// 再試行ポリシーとレート制限の下で実行します。
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	imgdom "github.com/shouni/gemini-image-kit/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// StoryboardComposer はテキスト・画像の生成フローを束ねる実行エンジンです。
// 再試行のたびに ClientFactory からクライアントを取得し直すため、
// クォータ枯渇でキーがローテーションされた場合も次の試行から反映されます。
type StoryboardComposer struct {
	Factory      ClientFactory
	TextPrompts  prompts.PromptBuilder
	ImagePrompts *prompts.ScenePromptBuilder
	RateLimiter  *rate.Limiter
	TextRetry    *retry.Orchestrator
	ImageRetry   *retry.Orchestrator

	assetURIs   map[string]string // ImageURL -> FileAPIURI
	mu          sync.RWMutex
	uploadGroup singleflight.Group
}

// NewStoryboardComposer は StoryboardComposer を初期化済みの状態で生成します。
func NewStoryboardComposer(
	factory ClientFactory,
	textPrompts prompts.PromptBuilder,
	imagePrompts *prompts.ScenePromptBuilder,
	limiter *rate.Limiter,
	textRetry *retry.Orchestrator,
	imageRetry *retry.Orchestrator,
) *StoryboardComposer {
	return &StoryboardComposer{
		Factory:      factory,
		TextPrompts:  textPrompts,
		ImagePrompts: imagePrompts,
		RateLimiter:  limiter,
		TextRetry:    textRetry,
		ImageRetry:   imageRetry,
		assetURIs:    make(map[string]string),
	}
}

// generateText はプロンプト1本をテキスト生成にかけ、再試行ポリシーを適用します。
func (sc *StoryboardComposer) generateText(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, sc.TextRetry, func(ctx context.Context) (string, error) {
		model, err := sc.Factory.TextModel(ctx)
		if err != nil {
			return "", err
		}
		return model.Generate(ctx, prompt)
	})
}

// GenerateRoster は物語の題材から登場要素一覧を生成します。
func (sc *StoryboardComposer) GenerateRoster(ctx context.Context, cfg domain.RunConfig, storyIdea string, charCount, propCount int) (domain.Roster, error) {
	data := prompts.NewTemplateData(cfg, nil)
	data.StoryIdea = storyIdea
	data.CharacterCount = charCount
	data.PropCount = propCount

	prompt, err := sc.TextPrompts.Build(prompts.ModeRoster, data)
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.Info("登場要素一覧を生成しています", "characters", charCount, "props", propCount)
	raw, err := sc.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return prompts.ParseRoster(raw)
}

// RefineIdea は題材をショート動画向けの構成に磨き上げます。
func (sc *StoryboardComposer) RefineIdea(ctx context.Context, cfg domain.RunConfig, roster domain.Roster, storyIdea string) (string, error) {
	data := prompts.NewTemplateData(cfg, roster)
	data.StoryIdea = storyIdea

	prompt, err := sc.TextPrompts.Build(prompts.ModeRefine, data)
	if err != nil {
		return "", fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	raw, err := sc.generateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// GenerateEntityVariations は既存の登場要素に対する外見デザイン代案を生成します。
// 採用するかどうかは利用者に委ね、ロスター自体は書き換えません。
func (sc *StoryboardComposer) GenerateEntityVariations(ctx context.Context, cfg domain.RunConfig, e domain.Entity, count int) ([]domain.EntityVariation, error) {
	data := prompts.NewTemplateData(cfg, nil)
	data.EntityName = e.Name
	data.EntityDescription = e.Description
	data.VariationCount = count

	prompt, err := sc.TextPrompts.Build(prompts.ModeVariations, data)
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.Info("外見デザイン代案を生成しています", "entity", e.ShortID, "count", count)
	raw, err := sc.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return prompts.ParseVariations(raw)
}

// GenerateScreenplay は登場要素を踏まえて脚本テキストを生成します。
func (sc *StoryboardComposer) GenerateScreenplay(ctx context.Context, cfg domain.RunConfig, roster domain.Roster, storyIdea string) (string, error) {
	data := prompts.NewTemplateData(cfg, roster)
	data.StoryIdea = storyIdea

	prompt, err := sc.TextPrompts.Build(prompts.ModeScreenplay, data)
	if err != nil {
		return "", fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.Info("脚本を生成しています", "total_scenes", cfg.TotalScenes())
	raw, err := sc.generateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// EnrichScenes は脚本の指定範囲をちょうど count 件のシーンに分割します。
// モデルが要求より多く返した場合は切り詰め、少ない場合はそのまま受け入れます
// （不足分は次のバッチ境界の再計算で吸収されます）。
func (sc *StoryboardComposer) EnrichScenes(ctx context.Context, screenplay string, cfg domain.RunConfig, roster domain.Roster, startScene, count, totalScenes int) ([]domain.SceneDraft, error) {
	data := prompts.NewTemplateData(cfg, roster)
	data.Screenplay = screenplay
	data.StartScene = startScene
	data.EndScene = startScene + count - 1
	data.BatchCount = count
	data.TotalScenes = totalScenes

	prompt, err := sc.TextPrompts.Build(prompts.ModeScenes, data)
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	label := "scenes " + strconv.Itoa(startScene) + "-" + strconv.Itoa(data.EndScene)
	slog.Info("シーンバッチを生成しています", "batch", label, "total", totalScenes)

	resp, err := retry.Do(ctx, sc.TextRetry, func(ctx context.Context) (domain.SceneBatchResponse, error) {
		model, err := sc.Factory.TextModel(ctx)
		if err != nil {
			return domain.SceneBatchResponse{}, err
		}
		raw, err := model.Generate(ctx, prompt)
		if err != nil {
			return domain.SceneBatchResponse{}, err
		}
		return prompts.ParseSceneBatch(raw)
	})
	if err != nil {
		return nil, err
	}

	drafts := resp.Scenes
	if len(drafts) > count {
		slog.Warn("要求より多いシーンが返されたため切り詰めます",
			"batch", label, "requested", count, "generated", len(drafts))
		drafts = drafts[:count]
	}
	return drafts, nil
}

// PrepareEntityResources は参照される全登場要素の画像を File API に事前アップロードします。
// 同じ URL への同時アップロードは singleflight で1回に集約されます。
func (sc *StoryboardComposer) PrepareEntityResources(ctx context.Context, roster domain.Roster, refs []string) error {
	seen := make(map[string]struct{})
	eg, egCtx := errgroup.WithContext(ctx)

	for _, ref := range refs {
		e := roster.FindByRef(ref)
		if e == nil || e.ImageURL == "" {
			continue
		}
		if _, ok := seen[e.ImageURL]; ok {
			continue
		}
		seen[e.ImageURL] = struct{}{}
		imageURL := e.ImageURL
		entityID := e.ID

		eg.Go(func() error {
			if _, err := sc.getOrUploadAsset(egCtx, imageURL); err != nil {
				return fmt.Errorf("登場要素 %s の参照画像の事前準備に失敗しました: %w", entityID, err)
			}
			return nil
		})
	}

	return eg.Wait()
}

// getOrUploadAsset は内部キャッシュを確認し、必要な場合のみアップロードを実行します。
func (sc *StoryboardComposer) getOrUploadAsset(ctx context.Context, imageURL string) (string, error) {
	sc.mu.RLock()
	uri, ok := sc.assetURIs[imageURL]
	sc.mu.RUnlock()
	if ok {
		return uri, nil
	}

	val, err, _ := sc.uploadGroup.Do(imageURL, func() (interface{}, error) {
		// singleflight 待機中に他のゴルーチンが完了している可能性があるため再確認
		sc.mu.RLock()
		existingURI, ok := sc.assetURIs[imageURL]
		sc.mu.RUnlock()
		if ok {
			return existingURI, nil
		}

		uploader, err := sc.Factory.AssetUploader(ctx)
		if err != nil {
			return nil, err
		}
		uploadedURI, uploadErr := uploader.UploadFile(ctx, imageURL)
		if uploadErr != nil {
			return nil, uploadErr
		}

		sc.mu.Lock()
		sc.assetURIs[imageURL] = uploadedURI
		sc.mu.Unlock()

		return uploadedURI, nil
	})
	if err != nil {
		return "", err
	}

	uri, ok = val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return uri, nil
}

// GenerateSceneFrame はシーン1件の静止画を生成します。refURLs は解決済みの参照画像です。
// レート制限の待機後、画像向けの再試行ポリシーで実行します。
func (sc *StoryboardComposer) GenerateSceneFrame(ctx context.Context, scene domain.Scene, cfg domain.RunConfig, refURLs []string) (*imgdom.ImageResponse, error) {
	if err := sc.RateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機中に中断されました: %w", err)
	}

	userPrompt, systemPrompt := sc.ImagePrompts.BuildScene(scene, cfg)
	req := imgdom.ImagePageRequest{
		Prompt:         systemPrompt + "\n\n" + userPrompt,
		NegativePrompt: prompts.NegativeScenePrompt,
		AspectRatio:    cfg.AspectRatio,
		ReferenceURLs:  refURLs,
	}

	slog.Info("シーン画像を生成しています", "scene", scene.Index, "refs", len(refURLs))
	return retry.Do(ctx, sc.ImageRetry, func(ctx context.Context) (*imgdom.ImageResponse, error) {
		gen, err := sc.Factory.FrameGenerator(ctx)
		if err != nil {
			return nil, err
		}
		return gen.Generate(ctx, req)
	})
}

// GenerateEntityAsset は登場要素の参照画像（デザインシート）を生成します。
func (sc *StoryboardComposer) GenerateEntityAsset(ctx context.Context, e domain.Entity, style string) (*imgdom.ImageResponse, error) {
	if err := sc.RateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("レート制限の待機中に中断されました: %w", err)
	}

	req := imgdom.ImagePageRequest{
		Prompt:         sc.ImagePrompts.BuildEntityAsset(e, style),
		NegativePrompt: prompts.NegativeScenePrompt,
		AspectRatio:    "1:1",
	}

	slog.Info("登場要素の参照画像を生成しています", "entity", e.ShortID)
	return retry.Do(ctx, sc.ImageRetry, func(ctx context.Context) (*imgdom.ImageResponse, error) {
		gen, err := sc.Factory.FrameGenerator(ctx)
		if err != nil {
			return nil, err
		}
		return gen.Generate(ctx, req)
	})
}

// ResolveSceneReferences はシーンの参照宣言を画像 URL へ解決します。
func ResolveSceneReferences(scene domain.Scene, roster domain.Roster, overrideID string) []string {
	return asset.ResolveReferences(scene.References, roster, overrideID)
}
