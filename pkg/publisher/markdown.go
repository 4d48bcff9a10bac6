package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// BuildPromptsText は動画生成ツールにそのまま貼り付けられるプロンプト一覧を構築します。
// 1シーン = 1行で、番号とスタイルを前置します。
func BuildPromptsText(board domain.Storyboard) string {
	var sb strings.Builder
	style := board.Config.Style
	for _, scene := range board.Scenes {
		if style != "" {
			sb.WriteString(fmt.Sprintf("%d. Style: %s. %s\n", scene.Index, style, scene.Prompt))
		} else {
			sb.WriteString(fmt.Sprintf("%d. %s\n", scene.Index, scene.Prompt))
		}
	}
	return sb.String()
}

// BuildMarkdown はストーリーボード全体をレビュー用の Markdown に整形します。
// go-text-format の HTML 変換にそのまま渡せる形式です。
func BuildMarkdown(board domain.Storyboard) string {
	var sb strings.Builder

	title := board.Title
	if title == "" {
		title = "Storyboard"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("- Style: %s\n", board.Config.Style))
	sb.WriteString(fmt.Sprintf("- Format: %s\n", board.Config.AspectRatio))
	sb.WriteString(fmt.Sprintf("- Duration: %ds (%d scenes)\n\n", board.Config.DurationSeconds, board.TotalScenes))

	for _, scene := range board.Scenes {
		sb.WriteString(fmt.Sprintf("## Scene %d (%s)\n\n", scene.Index, scene.Timecode()))
		if scene.ImagePath != "" {
			sb.WriteString(fmt.Sprintf("![Scene %d](%s)\n\n", scene.Index, scene.ImagePath))
		}
		if len(scene.References) > 0 {
			sb.WriteString(fmt.Sprintf("- References: %s\n", strings.Join(scene.References, ", ")))
		}
		if scene.Dialogue != "" {
			sb.WriteString(fmt.Sprintf("- Dialogue: %s\n", scene.Dialogue))
		}
		sb.WriteString(fmt.Sprintf("\n%s\n\n", scene.Prompt))
	}

	return sb.String()
}

// relativizeImagePaths は markdownPath と同じディレクトリ配下を指す画像パスを
// 相対パスに変換したコピーを返します。プレビュー一式をディレクトリごと移動しても
// 画像リンクが切れないようにするためです。配下にない画像はそのまま残します。
func relativizeImagePaths(board domain.Storyboard, markdownPath string) domain.Storyboard {
	base := asset.ResolveBaseURL(markdownPath)
	if base == "" {
		return board
	}

	scenes := make([]domain.Scene, len(board.Scenes))
	copy(scenes, board.Scenes)
	for i := range scenes {
		if rel := strings.TrimPrefix(scenes[i].ImagePath, base); rel != scenes[i].ImagePath {
			scenes[i].ImagePath = rel
		}
	}
	board.Scenes = scenes
	return board
}
