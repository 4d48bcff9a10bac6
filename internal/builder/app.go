package builder

import (
	"context"
	"fmt"
	"io"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/keyring"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Reader  remoteio.InputReader   // Readerは、台本やストーリーボードの読み込みに使用する入力元です。
	Writer  remoteio.OutputWriter  // Writerは、生成された内容を保存するための出力先です。
	Keys    *keyring.Keyring       // Keysは、クォータ枯渇時にローテーションするAPIキープールです。

	httpClient httpkit.ClientInterface // httpClient は外部APIとの通信に使う共通クライアント
}

// NewAppContext は共有コンポーネントを初期化して AppContext を組み立てるのだ。
// リーダー/ライターは remoteio 経由なので、ローカルパスも gs:// もそのまま扱えるのだよ。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(config.DefaultHTTPTimeout)

	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	keys, err := loadKeyring(ctx, cfg, reader)
	if err != nil {
		return nil, err
	}

	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Reader:     reader,
		Writer:     writer,
		Keys:       keys,
		httpClient: httpClient,
	}, nil
}

// loadKeyring はキー一覧ファイル（1行1キー）を読み込んでプールを構成するのだ。
// ファイル指定がない、または空だった場合は GEMINI_API_KEY 単独にフォールバックする。
func loadKeyring(ctx context.Context, cfg *config.Config, reader remoteio.InputReader) (*keyring.Keyring, error) {
	keys := keyring.New()

	keysFile := cfg.Options.KeysFile
	if keysFile == "" {
		keysFile = cfg.GeminiKeysFile
	}
	if keysFile != "" {
		rc, err := reader.Open(ctx, keysFile)
		if err != nil {
			return nil, fmt.Errorf("キー一覧ファイル '%s' の読み込みに失敗したのだ: %w", keysFile, err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("キー一覧ファイル '%s' の読み取りに失敗したのだ: %w", keysFile, err)
		}
		keys.Load(string(raw))
	}

	if keys.Len() == 0 && cfg.GeminiAPIKey != "" {
		keys.Load(cfg.GeminiAPIKey)
	}
	// 空のままでも即エラーにはしない。export/edit のように AI クライアントを
	// 使わないコマンドがあるため、キーの必須チェックは BuildComposer が行うのだ。
	return keys, nil
}
