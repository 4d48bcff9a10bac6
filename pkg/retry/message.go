package retry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/keyring"
)

const maxDetailLength = 200

// UserMessage は内部エラーを利用者向けの説明文に変換します。
// contextLabel は「脚本生成」「シーン画像生成」など、失敗した操作の呼び名です。
func UserMessage(err error, contextLabel string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, keyring.ErrNoCredentialConfigured) {
		return fmt.Sprintf("%sに失敗しました: API キーが設定されていません。GEMINI_API_KEY を設定するか --keys-file でキー一覧を渡してください。", contextLabel)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case Classify(err) == ClassQuota:
		return fmt.Sprintf("%sに失敗しました: すべての API キーがクォータ上限に達しています。時間を置くか、キーを追加してください。", contextLabel)
	case strings.Contains(msg, "api key not valid") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "401"):
		return fmt.Sprintf("%sに失敗しました: API キーが無効です。キーの値を確認してください。", contextLabel)
	case Classify(err) == ClassServerTransient:
		return fmt.Sprintf("%sに失敗しました: モデル側が混雑しています。しばらく待ってから再実行してください。", contextLabel)
	case strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout"):
		return fmt.Sprintf("%sに失敗しました: ネットワーク接続を確認してください。", contextLabel)
	default:
		return fmt.Sprintf("%sに失敗しました: %s", contextLabel, truncateDetail(err.Error()))
	}
}

// truncateDetail はルーン境界で切り詰めます。日本語を含むエラー文を
// バイト単位で切ると文字化けするためです。
func truncateDetail(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDetailLength {
		return s
	}
	return string(runes[:maxDetailLength]) + "..."
}
