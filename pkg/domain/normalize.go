package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackShortID は正規化の結果が空になったときに使う予備の識別子です。
const FallbackShortID = "id"

var (
	// 空白は単語分割に使うため残すのだ
	nonAlnumRegex = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)

	// NFD 分解で結合文字（アクセント類）を取り除くトランスフォーマー
	diacriticsFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// đ/Đ はストローク付き文字で NFD では分解されないため個別に畳み込む
	strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")
)

// NormalizeID は表示名を参照構文用の短い識別子に正規化します。
// アクセント除去、非英数字の削除、小文字化のうえで、最後の空白区切りトークンを返します。
// 対象の命名慣習では最も識別力のある語が末尾に来ることが多いためです（例: ベトナム語の人名）。
func NormalizeID(raw string) string {
	folded, _, err := transform.String(diacriticsFolder, raw)
	if err != nil {
		folded = raw
	}
	folded = strokeReplacer.Replace(folded)
	folded = nonAlnumRegex.ReplaceAllString(folded, "")
	folded = strings.ToLower(folded)

	words := strings.Fields(folded)
	if len(words) == 0 {
		return FallbackShortID
	}
	return words[len(words)-1]
}
