package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// BatchSize は1回のバッチで依頼するシーン数の上限です。
const BatchSize = 20

// State はバッチコントローラーの状態です。
type State int

const (
	// StateIdle は実行前の初期状態です。
	StateIdle State = iota
	// StateRunning はバッチループの実行中です。
	StateRunning
	// StateCompleted は全シーンの生成が完了した状態です。
	StateCompleted
	// StateHalted はバッチ途中で停止した状態です。Resume で再開できます。
	StateHalted
)

// String は状態のログ表示用ラベルを返すのだ。
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateHalted:
		return "halted"
	default:
		return "idle"
	}
}

// PendingBatch は停止時点で未完了だったバッチの範囲です。永続化して再開に使います。
type PendingBatch struct {
	StartScene int `json:"start_scene"`
	Count      int `json:"count"`
}

// ProgressFunc はバッチ1回の確定ごとに呼ばれる進捗通知です。
type ProgressFunc func(completedScenes, totalScenes int)

// Controller は脚本からシーン列を生成するバッチループの状態機械です。
// 生成済みシーンは確定扱いで失われません。失敗したバッチだけが再実行の対象です。
// 並行実行は想定していません（1コントローラー = 1実行）。
type Controller struct {
	enricher BatchEnricher
	store    *domain.SceneStore
	roster   domain.Roster
	onBatch  ProgressFunc

	state   State
	board   domain.Storyboard
	pending *PendingBatch
	lastErr error
}

// NewController は新しいコントローラーを生成します。onBatch は nil でも構いません。
func NewController(enricher BatchEnricher, store *domain.SceneStore, roster domain.Roster, onBatch ProgressFunc) *Controller {
	if onBatch == nil {
		onBatch = func(int, int) {}
	}
	return &Controller{
		enricher: enricher,
		store:    store,
		roster:   roster,
		onBatch:  onBatch,
		state:    StateIdle,
	}
}

// State は現在の状態を返します。
func (c *Controller) State() State { return c.state }

// Board は現在のストーリーボードのスナップショットを返します。
func (c *Controller) Board() domain.Storyboard {
	board := c.board
	board.Scenes = c.store.Scenes()
	return board
}

// Pending は停止時点の未完了バッチを返します。停止中でなければ nil です。
func (c *Controller) Pending() *PendingBatch { return c.pending }

// LastErr は直近の停止原因を返します。
func (c *Controller) LastErr() error { return c.lastErr }

// Start は新しいトップレベル実行を開始します。ストアと進捗は破棄して最初から生成するのだ。
func (c *Controller) Start(ctx context.Context, title, screenplay string, cfg domain.RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.store.Replace(nil)
	c.board = domain.Storyboard{
		Title:       title,
		Script:      screenplay,
		Config:      cfg,
		TotalScenes: cfg.TotalScenes(),
	}
	c.pending = nil
	c.lastErr = nil

	return c.run(ctx)
}

// Load は永続化済みのストーリーボードから状態を復元します。
// 復元後は Resume で続きから生成できます。
func (c *Controller) Load(board domain.Storyboard) error {
	if err := board.Config.Validate(); err != nil {
		return fmt.Errorf("復元したストーリーボードの設定が不正です: %w", err)
	}
	if board.TotalScenes == 0 {
		board.TotalScenes = board.Config.TotalScenes()
	}

	c.store.Replace(board.Scenes)
	c.board = board
	c.board.Scenes = nil
	c.pending = nil
	c.lastErr = nil

	if board.Cursor() >= board.TotalScenes {
		c.state = StateCompleted
	} else {
		c.state = StateHalted
	}
	return nil
}

// Resume は停止したバッチループを続きから再開します。
// 確定済みシーンはそのまま残り、停止したバッチから再実行されます。
func (c *Controller) Resume(ctx context.Context) error {
	switch c.state {
	case StateHalted:
		return c.run(ctx)
	case StateCompleted:
		return nil
	default:
		return fmt.Errorf("再開できる状態ではありません（現在: %s）", c.state)
	}
}

// run はカーソル位置から残り全バッチを順に実行します。
func (c *Controller) run(ctx context.Context) error {
	c.state = StateRunning
	total := c.board.TotalScenes

	for {
		cursor := c.store.Len()
		if cursor >= total {
			break
		}

		start := cursor + 1
		count := total - cursor
		if count > BatchSize {
			count = BatchSize
		}

		drafts, err := c.enricher.EnrichScenes(ctx, c.board.Script, c.board.Config, c.roster, start, count, total)
		if err != nil {
			c.halt(start, count, err)
			return fmt.Errorf("シーン %d-%d のバッチ生成に失敗しました: %w", start, start+count-1, err)
		}
		if len(drafts) == 0 {
			// 空バッチを受理するとカーソルが進まず無限ループになるため停止する
			err := fmt.Errorf("シーン %d-%d のバッチが空でした", start, start+count-1)
			c.halt(start, count, err)
			return err
		}

		scenes := make([]domain.Scene, 0, len(drafts))
		for i, d := range drafts {
			scenes = append(scenes, domain.NewScene(start+i, d))
		}
		c.store.Append(scenes...)

		done := c.store.Len()
		slog.Info("バッチが確定しました",
			"scenes", fmt.Sprintf("%d-%d", start, start+len(drafts)-1),
			"progress", fmt.Sprintf("%d/%d", done, total))
		c.onBatch(done, total)
	}

	c.state = StateCompleted
	c.pending = nil
	c.lastErr = nil
	return nil
}

func (c *Controller) halt(start, count int, err error) {
	c.state = StateHalted
	c.pending = &PendingBatch{StartScene: start, Count: count}
	c.lastErr = err
	slog.Error("バッチループを停止しました",
		"pending_start", start, "pending_count", count, "error", err)
}
