package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-3-pro-image-preview"
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRateInterval は画像生成リクエストの最小間隔なのだ。
	// 無料枠のレート制限（RPM）に収まるよう、控えめに刻むのだよ。
	DefaultRateInterval = 30 * time.Second
	DefaultRateBurst    = 2

	DefaultOutputDir        = "output" // 成果物一式のデフォルト保存先なのだ
	DefaultScreenplayName   = "screenplay.md"
	DefaultDurationSeconds  = 120
	DefaultStyle            = "Modern Anime"
	DefaultAspectRatio      = "16:9"
	DefaultDialogueLanguage = "Japanese"
	DefaultCharacterCount   = 3
	DefaultPropCount        = 2
	DefaultVariationCount   = 3

	// DefaultStyleSuffix はシーン画像プロンプトの末尾に付与する画風指定なのだ。
	DefaultStyleSuffix = "cinematic lighting, dynamic composition, high detail, vibrant colors, masterpiece, high resolution"
)

// Config はアプリケーション全体の環境設定（APIキーやモデル設定）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiKeysFile   string
	GeminiModel      string
	GeminiImageModel string
	StyleSuffix      string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiKeysFile:   envutil.GetEnv("GEMINI_API_KEYS_FILE", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		StyleSuffix:      envutil.GetEnv("STYLE_SUFFIX", DefaultStyleSuffix),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	StoryURL  string // --story-url
	StoryFile string // --story-file
	OutputDir string // --output-dir

	// 動画設定関連
	DurationSeconds  int    // --duration
	Style            string // --style
	AspectRatio      string // --aspect-ratio
	DialogueEnabled  bool   // --dialogue
	DialogueLanguage string // --dialogue-language
	Title            string // --title

	// 登場要素の生成数
	CharacterCount int    // --characters
	PropCount      int    // --props
	VariationsFor  string // --variations: 外見デザイン代案を起案する登場要素ID

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル
	KeysFile   string // --keys-file: APIキー一覧（1行1キー）のパス

	// 実行制御
	Resume       bool          // --resume: 保存済みストーリーボードの続きから再開
	Refine       bool          // --refine: 台本生成前にアイデアを磨き直す
	SceneIndex   int           // --scene: 画像を生成するシーン番号
	RenderAll    bool          // --all: 画像未生成のシーンを順に埋める
	RefOverride  string        // --ref: 参照画像に使う登場要素IDの明示指定
	EntityID     string        // --entity: 参照アセットを生成する登場要素ID
	PromptText   string        // --prompt: シーンに差し替える画像プロンプト
	InlineImages bool          // --inline-images: プレビューに画像を data URI で埋め込む
	HTTPTimeout  time.Duration // --http-timeout
}
