package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shouni/go-storyboard-kit/pkg/keyring"
)

// fakeRotator は Rotate の呼び出し回数と結果を制御するテスト用実装なのだ。
type fakeRotator struct {
	canRotate bool
	calls     int
}

func (f *fakeRotator) Rotate() bool {
	f.calls++
	return f.canRotate
}

func newTestOrchestrator(rotator Rotator) (*Orchestrator, *[]time.Duration) {
	o := NewOrchestrator(rotator, TextInitialBackoff, "test")
	var waits []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return o, &waits
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected Class
	}{
		{"429はクォータ", errors.New("googleapi: Error 429: rate limit"), ClassQuota},
		{"RESOURCE_EXHAUSTEDはクォータ", errors.New("rpc error: RESOURCE_EXHAUSTED"), ClassQuota},
		{"quota文言はクォータ", errors.New("Quota exceeded for model"), ClassQuota},
		{"503は一時的", errors.New("Error 503 backend error"), ClassServerTransient},
		{"overloadedは一時的", errors.New("the model is overloaded"), ClassServerTransient},
		{"UNAVAILABLEは一時的", errors.New("rpc error: code = Unavailable"), ClassServerTransient},
		{"その他は恒久", errors.New("invalid argument"), ClassFatal},
		{"ネットワーク断も恒久扱い", errors.New("dial tcp: no such host"), ClassFatal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.expected {
				t.Errorf("分類: 期待値 %v, 実際の値 %v", tc.expected, got)
			}
		})
	}
}

func TestDo_SuccessFirstTry(t *testing.T) {
	o, waits := newTestOrchestrator(&fakeRotator{})

	got, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if got != "ok" {
		t.Errorf("戻り値: 期待値 'ok', 実際の値 '%s'", got)
	}
	if len(*waits) != 0 {
		t.Error("成功時に待機してはいけないのだ")
	}
}

func TestDo_QuotaRotatesWithoutSleep(t *testing.T) {
	rotator := &fakeRotator{canRotate: true}
	o, waits := newTestOrchestrator(rotator)

	attempts := 0
	got, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("googleapi: Error 429")
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if got != "recovered" || attempts != 2 {
		t.Errorf("即時再試行で回復すべきなのだ: got=%s attempts=%d", got, attempts)
	}
	if rotator.calls != 1 {
		t.Errorf("Rotate呼び出し回数: 期待値 1, 実際の値 %d", rotator.calls)
	}
	if len(*waits) != 0 {
		t.Errorf("ローテーション成功時は待機なしで再試行すべきなのだ: %v", *waits)
	}
}

func TestDo_QuotaWithSingleKeyFallsBackToBackoff(t *testing.T) {
	o, waits := newTestOrchestrator(&fakeRotator{canRotate: false})

	attempts := 0
	_, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("429 quota exceeded")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if len(*waits) != 2 {
		t.Fatalf("待機回数: 期待値 2, 実際の値 %d", len(*waits))
	}
}

func TestDo_TransientBackoffGrows(t *testing.T) {
	o, waits := newTestOrchestrator(nil)

	attempts := 0
	_, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 4 {
			return "", errors.New("model is overloaded")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if len(*waits) != 3 {
		t.Fatalf("待機回数: 期待値 3, 実際の値 %d", len(*waits))
	}
	// 初期値 2s から倍々に増えること（揺らぎは最大500ms）
	expectedBase := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, base := range expectedBase {
		wait := (*waits)[i]
		if wait < base || wait > base+500*time.Millisecond {
			t.Errorf("%d回目の待機時間が範囲外なのだ: %v (基準 %v)", i+1, wait, base)
		}
	}
}

func TestDo_FatalReturnsImmediately(t *testing.T) {
	o, waits := newTestOrchestrator(&fakeRotator{canRotate: true})

	attempts := 0
	fatal := errors.New("invalid argument: bad prompt")
	_, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		attempts++
		return "", fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("恒久エラーがそのまま返るべきなのだ: %v", err)
	}
	if attempts != 1 {
		t.Errorf("恒久エラーで再試行してはいけないのだ: attempts=%d", attempts)
	}
	if len(*waits) != 0 {
		t.Error("恒久エラーで待機してはいけないのだ")
	}
}

func TestDo_BudgetExhausted(t *testing.T) {
	o, _ := newTestOrchestrator(nil)

	attempts := 0
	_, err := Do(context.Background(), o, func(ctx context.Context) (string, error) {
		attempts++
		return "", errors.New("503 backend error")
	})
	if err == nil {
		t.Fatal("予算超過でエラーになるべきなのだ")
	}
	if attempts != DefaultBudget {
		t.Errorf("試行回数: 期待値 %d, 実際の値 %d", DefaultBudget, attempts)
	}
	if !strings.Contains(err.Error(), "再試行上限") {
		t.Errorf("予算超過を示すメッセージであるべきなのだ: %v", err)
	}
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	o := NewOrchestrator(nil, time.Millisecond, "test")
	ctx, cancel := context.WithCancel(context.Background())
	o.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := Do(ctx, o, func(ctx context.Context) (string, error) {
		return "", errors.New("503")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("キャンセルが伝播すべきなのだ: %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		keyword string
	}{
		{"キー未設定", keyring.ErrNoCredentialConfigured, "GEMINI_API_KEY"},
		{"クォータ枯渇", errors.New("429 resource_exhausted"), "クォータ上限"},
		{"無効キー", errors.New("API key not valid. Please pass a valid key."), "無効"},
		{"過負荷", errors.New("the model is overloaded"), "混雑"},
		{"ネットワーク", errors.New("dial tcp: no such host"), "ネットワーク"},
		{"その他", errors.New("something odd happened"), "something odd happened"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := UserMessage(tc.err, "脚本生成")
			if !strings.Contains(msg, tc.keyword) {
				t.Errorf("メッセージに '%s' が含まれるべきなのだ: %s", tc.keyword, msg)
			}
		})
	}

	t.Run("200文字で切り詰めること", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		msg := UserMessage(errors.New(long), "脚本生成")
		if !strings.HasSuffix(msg, "...") {
			t.Errorf("切り詰めマーカーが必要なのだ: %s", msg)
		}
	})

	t.Run("日本語の詳細を切り詰めても文字が壊れないこと", func(t *testing.T) {
		long := strings.Repeat("予期せぬ内部状態", 50)
		msg := UserMessage(errors.New(long), "脚本生成")
		if !utf8.ValidString(msg) {
			t.Errorf("詳細がルーン境界で切られていないのだ: %q", msg)
		}
		if !strings.HasSuffix(msg, "...") {
			t.Errorf("切り詰めマーカーが必要なのだ: %s", msg)
		}
	})
}
