package domain

import "fmt"

// SceneDurationSeconds は1シーンの固定尺（秒）です。
// 分割ロジック全体がこの定数を前提とするため、実行時には変更できません。
const SceneDurationSeconds = 8

// SceneDraft は AI モデルからバッチ単位で返されるシーン1件分の構造です。
type SceneDraft struct {
	References []string `json:"references"`
	Prompt     string   `json:"prompt"`
	Dialogue   string   `json:"dialogue"`
}

// SceneBatchResponse は AI モデルから返されるバッチ応答全体の構造です。
type SceneBatchResponse struct {
	Scenes []SceneDraft `json:"scenes"`
}

// Scene はストーリーボードを構成する固定尺1単位です。
// Index は 1 始まりで実行全体を通して連番になります。番号の整合性は
// バッチ分割ロジックが保証し、リモート生成側の出力には依存しません。
type Scene struct {
	Index         int      `json:"scene_id"`
	TimeOffsetSec int      `json:"time_offset_sec"`
	Prompt        string   `json:"prompt"`
	Dialogue      string   `json:"dialogue,omitempty"`
	References    []string `json:"references,omitempty"`
	ImagePath     string   `json:"image_path,omitempty"`

	// InFlight はこのシーンの画像生成が進行中かどうかを示します。永続化しません。
	InFlight bool `json:"-"`
}

// NewScene はバッチ応答の1件をシーンに変換します。時刻オフセットは番号から導出します。
func NewScene(index int, draft SceneDraft) Scene {
	return Scene{
		Index:         index,
		TimeOffsetSec: (index - 1) * SceneDurationSeconds,
		Prompt:        draft.Prompt,
		Dialogue:      draft.Dialogue,
		References:    draft.References,
	}
}

// Timecode は時刻オフセットを MM:SS 形式で返すのだ。
func (s Scene) Timecode() string {
	return fmt.Sprintf("%02d:%02d", s.TimeOffsetSec/60, s.TimeOffsetSec%60)
}

// RunConfig は1回の生成実行に適用される設定です。
// 実行開始後に DurationSeconds を変えても、生成済みシーンの番号は振り直されません。
// 次のフル実行からのみ反映されます。
type RunConfig struct {
	DurationSeconds  int    `json:"duration_seconds"`
	Style            string `json:"style"`
	AspectRatio      string `json:"aspect_ratio"`
	DialogueEnabled  bool   `json:"dialogue_enabled"`
	DialogueLanguage string `json:"dialogue_language"`
}

// TotalScenes は目標尺から必要シーン数を導出します（切り上げ）。
func (c RunConfig) TotalScenes() int {
	if c.DurationSeconds <= 0 {
		return 0
	}
	return (c.DurationSeconds + SceneDurationSeconds - 1) / SceneDurationSeconds
}

// Validate は実行前の必須チェックを行うのだ。
func (c RunConfig) Validate() error {
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("動画の目標尺（duration_seconds）は正の値で指定してほしいのだ: %d", c.DurationSeconds)
	}
	return nil
}

// Storyboard は1回の実行の成果物（設定＋シーン列）で、途中停止時の再開にも使う永続形式です。
type Storyboard struct {
	Title       string    `json:"title,omitempty"`
	Script      string    `json:"script"`
	Config      RunConfig `json:"config"`
	TotalScenes int       `json:"total_scenes"`
	Scenes      []Scene   `json:"scenes"`
}

// Cursor は再開時のバッチカーソル（最後に確定したシーン番号）を返します。
// シーン番号は常に 1 から連番なので、件数がそのままカーソルになります。
func (sb Storyboard) Cursor() int {
	return len(sb.Scenes)
}
