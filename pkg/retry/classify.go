// Package retry はリモート生成呼び出しの失敗分類と再試行制御を提供します。
// 失敗はクォータ枯渇・サーバー過負荷・恒久エラーの3種に分類され、
// それぞれキーローテーション・指数バックオフ・即時中断という異なる回復戦略を取ります。
package retry

import "strings"

// Class は失敗の分類です。
type Class int

const (
	// ClassFatal は再試行しても回復しない恒久エラーです（既定の分類）。
	ClassFatal Class = iota
	// ClassQuota はクォータ枯渇です。キーローテーションで即時回復を試みます。
	ClassQuota
	// ClassServerTransient はサーバー側の一時的過負荷です。バックオフ後に再試行します。
	ClassServerTransient
)

// String は分類のログ表示用ラベルを返すのだ。
func (c Class) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassServerTransient:
		return "server_transient"
	default:
		return "fatal"
	}
}

var (
	quotaMarkers     = []string{"429", "resource_exhausted", "quota"}
	transientMarkers = []string{"503", "overloaded", "unavailable"}
)

// Classify はエラーメッセージの部分文字列照合で失敗を分類します。
// SDK がラップしたエラー型に依存しないよう、照合は小文字化した文面に対して行います。
// ネットワーク断などの接続エラーはここでは一時的とみなさず ClassFatal になります。
func Classify(err error) Class {
	if err == nil {
		return ClassFatal
	}
	msg := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return ClassQuota
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return ClassServerTransient
		}
	}
	return ClassFatal
}
