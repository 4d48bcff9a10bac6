package publisher

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"

	imgdom "github.com/shouni/gemini-image-kit/ports"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// DataURIFromResponse は画像応答を data URI 文字列に変換するのだ。
// ブラウザや動画編集ツールへそのまま貼り付けられる形式で、MIME タイプが
// 不明な場合は image/png として扱います。データが空なら空文字を返します。
func DataURIFromResponse(resp *imgdom.ImageResponse) string {
	if resp == nil || len(resp.Data) == 0 {
		return ""
	}
	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(resp.Data)
}

// InlineSceneImages は各シーンの画像ファイルを読み込み、ImagePath を data URI に
// 差し替えたコピーを返すのだ。読み込めなかった画像は警告を出してパスのまま残します。
func InlineSceneImages(ctx context.Context, board domain.Storyboard, reader InputReader) domain.Storyboard {
	scenes := make([]domain.Scene, len(board.Scenes))
	copy(scenes, board.Scenes)

	for i := range scenes {
		imagePath := scenes[i].ImagePath
		if imagePath == "" || strings.HasPrefix(imagePath, "data:") {
			continue
		}

		rc, err := reader.Open(ctx, imagePath)
		if err != nil {
			slog.WarnContext(ctx, "画像を読み込めないためパスのまま残すのだ", "path", imagePath, "reason", err)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			slog.WarnContext(ctx, "画像を読み込めないためパスのまま残すのだ", "path", imagePath, "reason", err)
			continue
		}

		scenes[i].ImagePath = DataURIFromResponse(&imgdom.ImageResponse{
			Data:     data,
			MimeType: mime.TypeByExtension(path.Ext(imagePath)),
		})
	}

	board.Scenes = scenes
	return board
}
