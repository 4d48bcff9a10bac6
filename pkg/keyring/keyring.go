// Package keyring は Gemini API キーのプールと循環ローテーションを提供します。
// クォータ枯渇（429 / RESOURCE_EXHAUSTED）を検知したリトライ層が Rotate を呼び、
// 次のリクエストから別キーが使われる想定です。
package keyring

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoCredentialConfigured はキーが1つも設定されていない場合のエラーです。
var ErrNoCredentialConfigured = errors.New("API キーが設定されていません（GEMINI_API_KEY か --keys-file を指定してほしいのだ）")

// Keyring は API キーのプールを保持し、現在位置を管理します。
// 全メソッドは goroutine セーフです。
type Keyring struct {
	mu    sync.Mutex
	keys  []string
	index int
}

// New は空のキーリングを生成します。
func New() *Keyring {
	return &Keyring{}
}

// Load はテキスト（1行1キー）からプールを再構築するのだ。
// 空行と前後空白は取り除き、現在位置は先頭にリセットします。
func (k *Keyring) Load(raw string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys = k.keys[:0]
	for _, line := range strings.Split(raw, "\n") {
		key := strings.TrimSpace(line)
		if key == "" {
			continue
		}
		k.keys = append(k.keys, key)
	}
	k.index = 0
}

// Current は現在選択中のキーを返します。プールが空なら ErrNoCredentialConfigured を返します。
func (k *Keyring) Current() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) == 0 {
		return "", ErrNoCredentialConfigured
	}
	return k.keys[k.index], nil
}

// Rotate は次のキーへ循環的に切り替えます。
// プールが2つ以上あり実際に切り替わった場合のみ true を返すのだ。
func (k *Keyring) Rotate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.keys) <= 1 {
		return false
	}
	k.index = (k.index + 1) % len(k.keys)
	return true
}

// Len は保持しているキー数を返します。
func (k *Keyring) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}
