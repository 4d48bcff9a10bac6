package builder

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/keyring"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/retry"

	"github.com/shouni/go-storyboard-kit/internal/config"

	"github.com/shouni/go-text-format/pkg/builder"
	"github.com/shouni/go-web-exact/v2/extract"
	"golang.org/x/time/rate"
)

// BuildComposer はテキスト/画像の生成を束ねるコンポーザーを構築します。
// クライアントはリトライのたびにキーリングの現在キーから組み立て直されるため、
// クォータ枯渇によるローテーションが即座に反映されるのだ。
func BuildComposer(appCtx *AppContext) (*generator.StoryboardComposer, error) {
	if appCtx.Keys.Len() == 0 {
		return nil, keyring.ErrNoCredentialConfigured
	}

	factory := generator.NewGeminiClientFactory(
		appCtx.Keys,
		appCtx.httpClient,
		appCtx.Reader,
		appCtx.Config.GeminiModel,
		appCtx.Config.GeminiImageModel,
	)

	textPrompts, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗したのだ: %w", err)
	}
	imagePrompts := prompts.NewScenePromptBuilder(appCtx.Config.StyleSuffix)

	limiter := rate.NewLimiter(rate.Every(config.DefaultRateInterval), config.DefaultRateBurst)
	textRetry := retry.NewOrchestrator(appCtx.Keys, retry.TextInitialBackoff, "テキスト生成")
	imageRetry := retry.NewOrchestrator(appCtx.Keys, retry.ImageInitialBackoff, "画像生成")

	return generator.NewStoryboardComposer(factory, textPrompts, imagePrompts, limiter, textRetry, imageRetry), nil
}

// BuildPublisher は成果物の保存と変換を担うパブリッシャーを構築します。
func BuildPublisher(appCtx *AppContext) (*publisher.StoryboardPublisher, error) {
	builderConfig := builder.BuilderConfig{
		EnableHardWraps: true,
		Mode:            "webtoon",
	}
	appBuilder, err := builder.NewBuilder(builderConfig)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションビルダーの初期化に失敗しました: %w", err)
	}

	md2htmlRunner, err := appBuilder.BuildRunner()
	if err != nil {
		return nil, fmt.Errorf("MarkdownToHtmlRunnerの初期化に失敗しました: %w", err)
	}

	return publisher.NewStoryboardPublisher(appCtx.Writer, md2htmlRunner), nil
}

// BuildParser は永続化済みストーリーボード/登場要素一覧の読み込み口を構築します。
func BuildParser(appCtx *AppContext) *parser.StoryboardParser {
	return parser.NewStoryboardParser(appCtx.Reader)
}

// BuildExtractor は --story-url 指定時に本文抽出へ使うエクストラクターを構築します。
func BuildExtractor(appCtx *AppContext) (*extract.Extractor, error) {
	extractor, err := extract.NewExtractor(appCtx.httpClient)
	if err != nil {
		return nil, fmt.Errorf("エクストラクターの初期化に失敗しました: %w", err)
	}
	return extractor, nil
}
