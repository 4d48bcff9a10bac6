package publisher

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// InputReader は保存済み画像を読み出すための契約です。remoteio.InputReader が満たします。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ExportImagesZip は生成済みのシーン画像を1つの ZIP にまとめて書き出します。
// 画像を持たないシーンはスキップされます。ZIP 内のファイル名は保存時の
// scene_{番号}.png をそのまま使い、標準の命名に従わないパスはシーン番号から
// 付け直します。
func (p *StoryboardPublisher) ExportImagesZip(ctx context.Context, board domain.Storyboard, reader InputReader, opts Options) (string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	archived := 0
	for _, scene := range board.Scenes {
		if scene.ImagePath == "" {
			continue
		}

		rc, err := reader.Open(ctx, scene.ImagePath)
		if err != nil {
			return "", fmt.Errorf("シーン %d の画像の読み込みに失敗しました (%s): %w", scene.Index, scene.ImagePath, err)
		}

		entryName := fmt.Sprintf("scene_%d.png", scene.Index)
		if base := path.Base(scene.ImagePath); asset.SceneFileRegex.MatchString(base) {
			entryName = base
		}
		entry, err := zw.Create(entryName)
		if err != nil {
			rc.Close()
			return "", fmt.Errorf("ZIPエントリの作成に失敗しました: %w", err)
		}
		if _, err := io.Copy(entry, rc); err != nil {
			rc.Close()
			return "", fmt.Errorf("シーン %d の画像のZIP書き込みに失敗しました: %w", scene.Index, err)
		}
		rc.Close()
		archived++
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("ZIPのクローズに失敗しました: %w", err)
	}
	if archived == 0 {
		return "", fmt.Errorf("ZIPに含められる画像が1枚もありません")
	}

	fullPath, err := asset.ResolveOutputPath(opts.OutputDir, "images.zip")
	if err != nil {
		return "", err
	}
	if err := p.writer.Write(ctx, fullPath, &buf, "application/zip"); err != nil {
		return "", fmt.Errorf("ZIPの書き込みに失敗しました (%s): %w", fullPath, err)
	}

	slog.Info("シーン画像をZIPにまとめました", "path", fullPath, "images", archived)
	return fullPath, nil
}
