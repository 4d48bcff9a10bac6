package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-storyboard-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は各サブコマンドで共有する実行時オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- ソース入力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StoryURL, "story-url", "u", "", "Webページから物語の元ネタを取得するためのURLなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.StoryFile, "story-file", "f", "", "入力ファイルのパス（'-'で標準入力なのだ）。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物の保存先ディレクトリ（ローカル or gs://...）なのだ。")

	// --- 動画設定 ---
	rootCmd.PersistentFlags().IntVarP(&opts.DurationSeconds, "duration", "d", config.DefaultDurationSeconds, "目標尺（秒）なのだ。8秒刻みでシーン数が決まるのだよ。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", config.DefaultStyle, "映像スタイル（Modern Anime, Neon Cyberpunk など）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.AspectRatio, "aspect-ratio", config.DefaultAspectRatio, "画面のアスペクト比（16:9 / 9:16 / 1:1）なのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.DialogueEnabled, "dialogue", true, "シーンに台詞を含めるかどうかなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.DialogueLanguage, "dialogue-language", config.DefaultDialogueLanguage, "台詞の言語なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Title, "title", "t", "", "ストーリーボードのタイトルなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "テキスト生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.KeysFile, "keys-file", "", "APIキー一覧ファイル（1行1キー）のパスなのだ。クォータ枯渇時に自動で切り替えるのだよ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")

	// --- サブコマンド固有フラグ ---
	rosterCmd.Flags().IntVar(&opts.CharacterCount, "characters", config.DefaultCharacterCount, "起案するキャラクターの数なのだ。")
	rosterCmd.Flags().IntVar(&opts.PropCount, "props", config.DefaultPropCount, "起案する小道具・舞台装置の数なのだ。")
	rosterCmd.Flags().StringVar(&opts.VariationsFor, "variations", "", "外見デザイン代案を起案する登場要素の short_id か ID なのだ。")
	scriptCmd.Flags().BoolVar(&opts.Refine, "refine", false, "台本生成の前にアイデアを磨き直すのだ。")
	generateCmd.Flags().BoolVar(&opts.Resume, "resume", false, "保存済み storyboard.json の続きから再開するのだ。")
	imageCmd.Flags().IntVarP(&opts.SceneIndex, "scene", "s", 0, "画像を生成するシーン番号なのだ。")
	imageCmd.Flags().BoolVar(&opts.RenderAll, "all", false, "画像が未生成のシーンを番号順にすべて埋めるのだ。")
	imageCmd.Flags().StringVar(&opts.RefOverride, "ref", "", "参照画像に使う登場要素IDを明示指定するのだ。")
	imageCmd.Flags().StringVar(&opts.EntityID, "entity", "", "参照アセットを生成する登場要素IDなのだ。")
	editCmd.Flags().IntVarP(&opts.SceneIndex, "scene", "s", 0, "プロンプトを書き換えるシーン番号なのだ。")
	editCmd.Flags().StringVar(&opts.PromptText, "prompt", "", "差し替えるプロンプト本文なのだ。")
	exportCmd.Flags().BoolVar(&opts.InlineImages, "inline-images", false, "プレビューのシーン画像を data URI として埋め込むのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// export と edit は保存済みファイルの操作だけなので、APIキーなしでも動かせるのだ
	if cmd.Name() == "export" || cmd.Name() == "edit" {
		return nil
	}

	// Gemini APIを利用するため、キーの入手経路が1つはないと始まらないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GEMINI_API_KEYS_FILE") == "" && opts.KeysFile == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY（または --keys-file）が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// isStdin は標準入力にパイプ経由のデータが来ているかを判定するのだ。
func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-storyboard-go",
		addAppFlags,
		preRunAppE,
		generateCmd,
		rosterCmd,
		scriptCmd,
		imageCmd,
		editCmd,
		exportCmd,
	)
}
