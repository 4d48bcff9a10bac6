package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// NegativeScenePrompt はシーン画像の生成から除外したい要素を定義します。
	NegativeScenePrompt = "text, subtitles, captions, watermark, signature, username, ui elements, frame borders, split screen, collage, low quality, distorted, bad anatomy, deformed faces, poorly drawn hands"

	// sceneSystemInstruction はシーン静止画生成の基本指示です。
	sceneSystemInstruction = "You are a professional concept artist for animated short films. Create a single high-quality cinematic keyframe image for the scene described below. The characters and objects MUST match the provided reference images exactly (face, hair, clothing, colors)."
)

// ScenePromptBuilder は、スタイル指定を考慮してシーン画像プロンプトを構築します。
type ScenePromptBuilder struct {
	defaultSuffix string // 例: "anime style, high quality"
}

// NewScenePromptBuilder は新しい ScenePromptBuilder を生成します。
func NewScenePromptBuilder(suffix string) *ScenePromptBuilder {
	return &ScenePromptBuilder{defaultSuffix: suffix}
}

// BuildScene は、シーン1件分のユーザープロンプトとシステムプロンプトを生成します。
// シーンのビジュアルプロンプトにはタイムライン記法が含まれますが、静止画では
// 主要イベント（2-6s 区間）を描くよう指示します。
func (pb *ScenePromptBuilder) BuildScene(scene domain.Scene, cfg domain.RunConfig) (userPrompt string, systemPrompt string) {
	systemParts := []string{sceneSystemInstruction}
	if cfg.Style != "" {
		systemParts = append(systemParts, fmt.Sprintf("### ARTISTIC STYLE ###\n%s", cfg.Style))
	}
	if pb.defaultSuffix != "" {
		systemParts = append(systemParts, fmt.Sprintf("### STYLE SUFFIX ###\n%s", pb.defaultSuffix))
	}
	systemPrompt = strings.Join(systemParts, "\n\n")

	visualParts := []string{
		sanitizeInline(scene.Prompt),
		"depict the main event of the timeline (the 2-6s segment) as a single still frame",
		"cinematic lighting",
		"high quality",
	}

	var cleanParts []string
	for _, p := range visualParts {
		if s := strings.TrimSpace(p); s != "" {
			cleanParts = append(cleanParts, s)
		}
	}
	userPrompt = strings.Join(cleanParts, ", ")

	return userPrompt, systemPrompt
}

// BuildEntityAsset は、登場要素の参照画像（キャラクターシート／小道具アセット）用の
// プロンプトを生成します。後続のシーン生成で参照画像として使うため、背景は
// シンプルに分離させます。
func (pb *ScenePromptBuilder) BuildEntityAsset(e domain.Entity, style string) string {
	parts := []string{
		fmt.Sprintf("Create a high-quality, detailed character design or object asset based on this description. Isolate on a simple or white background for reference use: %s", sanitizeInline(e.Description)),
	}
	if style != "" {
		parts = append(parts, style)
	}
	if pb.defaultSuffix != "" {
		parts = append(parts, pb.defaultSuffix)
	}
	return strings.Join(parts, ", ")
}

// sanitizeInline は文字列をプロンプトに埋め込む前の最低限の正規化を行います。
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
