package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// FrameRenderer はシーン静止画の生成と保存を束ねます。
// 同一シーンへの多重リクエストは InFlight フラグで弾きます。
type FrameRenderer struct {
	composer  *StoryboardComposer
	store     *domain.SceneStore
	roster    domain.Roster
	cfg       domain.RunConfig
	writer    OutputWriter
	outputDir string
}

// NewFrameRenderer は FrameRenderer を生成するのだ。
func NewFrameRenderer(
	composer *StoryboardComposer,
	store *domain.SceneStore,
	roster domain.Roster,
	cfg domain.RunConfig,
	writer OutputWriter,
	outputDir string,
) *FrameRenderer {
	return &FrameRenderer{
		composer:  composer,
		store:     store,
		roster:    roster,
		cfg:       cfg,
		writer:    writer,
		outputDir: outputDir,
	}
}

// RenderScene はシーン1件の静止画を生成して保存し、保存先パスを返します。
// overrideRef が指定された場合、参照画像はその登場要素1件だけになります。
// 生成済み画像がある場合も再生成します（明示的な依頼は作り直しとみなします）。
func (fr *FrameRenderer) RenderScene(ctx context.Context, index int, overrideRef string) (string, error) {
	scene, ok := fr.store.Get(index)
	if !ok {
		return "", fmt.Errorf("シーン %d が見つかりません", index)
	}
	if scene.InFlight {
		return "", fmt.Errorf("シーン %d は画像生成中です", index)
	}

	fr.store.SetInFlight(index, true)
	defer fr.store.SetInFlight(index, false)

	refURLs := asset.ResolveReferences(scene.References, fr.roster, overrideRef)
	if err := fr.composer.PrepareEntityResources(ctx, fr.roster, scene.References); err != nil {
		// 事前アップロードは高速化のためのウォームアップであり、失敗しても生成自体は続行できる
		slog.Warn("参照画像の事前準備に失敗しました", "scene", index, "error", err)
	}

	resp, err := fr.composer.GenerateSceneFrame(ctx, scene, fr.cfg, refURLs)
	if err != nil {
		return "", fmt.Errorf("シーン %d の画像生成に失敗しました: %w", index, err)
	}

	finalPath, err := fr.saveFrame(ctx, index, resp.Data, resp.MimeType)
	if err != nil {
		return "", err
	}

	fr.store.SetImage(index, finalPath)
	return finalPath, nil
}

// RenderAll は全シーンの静止画を番号の昇順で生成します。
// 保存済みの画像を持つシーンはスキップするため、途中失敗後の再実行で続きから進みます。
func (fr *FrameRenderer) RenderAll(ctx context.Context) error {
	scenes := fr.store.Scenes()
	rendered := 0

	for _, scene := range scenes {
		if scene.ImagePath != "" {
			continue
		}
		if _, err := fr.RenderScene(ctx, scene.Index, ""); err != nil {
			return fmt.Errorf("全シーン画像生成はシーン %d で停止しました（%d件生成済み）: %w", scene.Index, rendered, err)
		}
		rendered++
	}

	slog.Info("全シーンの画像生成が完了しました", "rendered", rendered, "total", len(scenes))
	return nil
}

// RenderEntityAsset は登場要素の参照画像を生成・保存し、ロスター上の ImageURL を更新します。
func (fr *FrameRenderer) RenderEntityAsset(ctx context.Context, roster domain.Roster, entityID, style string) (string, error) {
	e := roster.FindByRef(entityID)
	if e == nil {
		return "", fmt.Errorf("登場要素 %s が見つかりません", entityID)
	}

	resp, err := fr.composer.GenerateEntityAsset(ctx, *e, style)
	if err != nil {
		return "", fmt.Errorf("登場要素 %s の画像生成に失敗しました: %w", e.ShortID, err)
	}

	filename := fmt.Sprintf("asset_%s%s", e.ShortID, getPreferredExtension(resp.MimeType))
	finalPath, err := asset.ResolveOutputPath(fr.outputDir, path.Join(asset.DefaultImageDir, filename))
	if err != nil {
		return "", fmt.Errorf("画像保存パスの生成に失敗しました: %w", err)
	}
	if err := fr.writer.Write(ctx, finalPath, bytes.NewReader(resp.Data), resp.MimeType); err != nil {
		return "", fmt.Errorf("画像の保存に失敗しました (path: %s): %w", finalPath, err)
	}

	roster.Update(e.ID, func(ent *domain.Entity) { ent.ImageURL = finalPath })
	return finalPath, nil
}

func (fr *FrameRenderer) saveFrame(ctx context.Context, index int, data []byte, mimeType string) (string, error) {
	basePath, err := asset.ResolveOutputPath(fr.outputDir, path.Join(asset.DefaultImageDir, asset.DefaultSceneFileName))
	if err != nil {
		return "", fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	finalPath, err := asset.GenerateIndexedPath(basePath, index)
	if err != nil {
		return "", fmt.Errorf("シーン %d の出力パス生成に失敗しました: %w", index, err)
	}

	slog.InfoContext(ctx, "シーン画像を保存しています", "scene", index, "path", finalPath)
	if err := fr.writer.Write(ctx, finalPath, bytes.NewReader(data), mimeType); err != nil {
		return "", fmt.Errorf("シーン %d の画像保存に失敗しました (path: %s): %w", index, finalPath, err)
	}
	return finalPath, nil
}

// getPreferredExtension は MIME タイプから保存時の拡張子を決定します。既定は .png です。
func getPreferredExtension(mimeType string) string {
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[len(exts)-1]
	}
	return ".png"
}
