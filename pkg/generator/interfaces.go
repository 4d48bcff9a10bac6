package generator

import (
	"context"
	"io"

	imgdom "github.com/shouni/gemini-image-kit/ports"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// OutputWriter は生成物を外部ストレージへ保存する契約です。remoteio.OutputWriter が満たします。
type OutputWriter interface {
	Write(ctx context.Context, path string, data io.Reader, mimeType string) error
}

// TextModel は1回のテキスト生成呼び出しの契約です。
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FrameGenerator はシーン静止画1枚の生成契約です。
type FrameGenerator interface {
	Generate(ctx context.Context, req imgdom.ImagePageRequest) (*imgdom.ImageResponse, error)
}

// AssetUploader は参照画像を File API に事前アップロードする契約です。
type AssetUploader interface {
	UploadFile(ctx context.Context, fileURL string) (string, error)
}

// ClientFactory は API キーの現在値でクライアント群を組み立てます。
// キーローテーション後の再試行でも新しいキーが反映されるよう、
// 呼び出しごとに取得し直す前提のインターフェースです。
type ClientFactory interface {
	TextModel(ctx context.Context) (TextModel, error)
	FrameGenerator(ctx context.Context) (FrameGenerator, error)
	AssetUploader(ctx context.Context) (AssetUploader, error)
}

// BatchEnricher は脚本の指定範囲をシーン列に分割する契約です。
type BatchEnricher interface {
	EnrichScenes(ctx context.Context, screenplay string, cfg domain.RunConfig, roster domain.Roster, startScene, count, totalScenes int) ([]domain.SceneDraft, error)
}
