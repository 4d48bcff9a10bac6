package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/genai"

	imgdom "github.com/shouni/gemini-image-kit/ports"
	imagekit "github.com/shouni/gemini-image-kit/generator"
	"github.com/shouni/go-gemini-client/gemini"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/go-storyboard-kit/pkg/keyring"
)

const (
	defaultGeminiTemperature = float32(0.7)
	defaultCacheExpiration   = 5 * time.Minute
	cacheCleanupInterval     = 15 * time.Minute
	defaultTTL               = 5 * time.Minute
)

// GeminiClientFactory は keyring の現在キーで Gemini クライアント群を組み立てます。
// 画像キャッシュはファクトリ単位で共有するため、キーが切り替わっても
// アップロード済みアセットの参照は引き継がれます。
type GeminiClientFactory struct {
	keys       *keyring.Keyring
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
	textModel  string
	imageModel string
	imgCache   *cache.Cache
}

// NewGeminiClientFactory は新しいファクトリを生成するのだ。
func NewGeminiClientFactory(
	keys *keyring.Keyring,
	httpClient httpkit.ClientInterface,
	reader remoteio.InputReader,
	textModel, imageModel string,
) *GeminiClientFactory {
	return &GeminiClientFactory{
		keys:       keys,
		httpClient: httpClient,
		reader:     reader,
		textModel:  textModel,
		imageModel: imageModel,
		imgCache:   cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// TextModel は現在キーでテキスト生成クライアントを組み立てます。
func (f *GeminiClientFactory) TextModel(ctx context.Context) (TextModel, error) {
	aiClient, err := f.newAIClient(ctx)
	if err != nil {
		return nil, err
	}
	return &geminiTextModel{client: aiClient, model: f.textModel}, nil
}

// FrameGenerator は現在キーで画像生成クライアントを組み立てます。
func (f *GeminiClientFactory) FrameGenerator(ctx context.Context) (FrameGenerator, error) {
	core, err := f.newImageCore(ctx)
	if err != nil {
		return nil, err
	}
	gen, err := imagekit.NewGeminiGenerator(f.imageModel, core)
	if err != nil {
		return nil, fmt.Errorf("画像生成エンジンの初期化に失敗しました: %w", err)
	}
	return &geminiFrameGenerator{gen: gen}, nil
}

// AssetUploader は現在キーでアセットアップローダーを組み立てます。
func (f *GeminiClientFactory) AssetUploader(ctx context.Context) (AssetUploader, error) {
	core, err := f.newImageCore(ctx)
	if err != nil {
		return nil, err
	}
	return core, nil
}

func (f *GeminiClientFactory) newAIClient(ctx context.Context) (gemini.GenerativeModel, error) {
	apiKey, err := f.keys.Current()
	if err != nil {
		return nil, err
	}
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

func (f *GeminiClientFactory) newImageCore(ctx context.Context) (*imagekit.GeminiImageCore, error) {
	aiClient, err := f.newAIClient(ctx)
	if err != nil {
		return nil, err
	}
	core, err := imagekit.NewGeminiImageCore(
		aiClient,
		f.reader,
		f.httpClient,
		f.imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCore の初期化に失敗しました: %w", err)
	}
	return core, nil
}

type geminiTextModel struct {
	client gemini.GenerativeModel
	model  string
}

func (m *geminiTextModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.GenerateContent(ctx, prompt, m.model)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

type geminiFrameGenerator struct {
	gen imagekit.ImageGenerator
}

func (g *geminiFrameGenerator) Generate(ctx context.Context, req imgdom.ImagePageRequest) (*imgdom.ImageResponse, error) {
	return g.gen.GenerateMangaPage(ctx, req)
}
