package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

const (
	// DefaultBudget は1回の論理操作あたりの最大試行回数です。
	DefaultBudget = 10
	// TextInitialBackoff はテキスト生成向けの初期待機時間です。
	TextInitialBackoff = 2 * time.Second
	// ImageInitialBackoff は画像生成向けの初期待機時間です。画像側はレート制限が厳しいため長めに取ります。
	ImageInitialBackoff = 5 * time.Second
	// maxJitter はバックオフに加算する揺らぎの上限です。
	maxJitter = 500 * time.Millisecond
)

// Rotator はクォータ枯渇時に認証情報を切り替える口です。
// 実際に切り替わった場合のみ true を返します。
type Rotator interface {
	Rotate() bool
}

// Orchestrator は分類に応じた再試行ポリシーを実行します。
type Orchestrator struct {
	rotator        Rotator
	budget         int
	initialBackoff time.Duration
	label          string

	// sleep はテストから差し替えるための待機フックです。
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator は再試行オーケストレーターを生成するのだ。
// label はログに出す操作名（"text" / "image" など）です。
func NewOrchestrator(rotator Rotator, initialBackoff time.Duration, label string) *Orchestrator {
	return &Orchestrator{
		rotator:        rotator,
		budget:         DefaultBudget,
		initialBackoff: initialBackoff,
		label:          label,
		sleep:          sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do は op を再試行ポリシー付きで実行します。
//   - クォータ枯渇: キーをローテーションし、切り替わった場合は待機なしで即再試行します。
//     切り替え先がない（単一キー）場合は過負荷と同じバックオフに落とします。
//   - サーバー過負荷: 指数バックオフ（初期値×2^n ＋ 揺らぎ）後に再試行します。
//   - 恒久エラー: 即座に中断してエラーを返します。
//
// 試行回数が予算を超えた場合は最後のエラーをラップして返すのだ。
func Do[T any](ctx context.Context, o *Orchestrator, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	backoff := o.initialBackoff
	for attempt := 1; attempt <= o.budget; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		class := Classify(err)
		slog.Warn("リモート呼び出しに失敗しました",
			"operation", o.label,
			"attempt", attempt,
			"class", class.String(),
			"error", err)

		switch class {
		case ClassFatal:
			return zero, err
		case ClassQuota:
			if o.rotator != nil && o.rotator.Rotate() {
				slog.Info("API キーをローテーションして即時再試行します", "operation", o.label)
				continue
			}
			// 切り替え先がなければサーバー過負荷と同じ扱いで待つのだ。
			fallthrough
		case ClassServerTransient:
			if attempt == o.budget {
				break
			}
			wait := backoff + time.Duration(rand.Int63n(int64(maxJitter)))
			slog.Info("バックオフ待機します", "operation", o.label, "wait", wait)
			if err := o.sleep(ctx, wait); err != nil {
				return zero, err
			}
			backoff *= 2
		}
	}

	return zero, fmt.Errorf("再試行上限（%d回）に達しました: %w", o.budget, lastErr)
}
