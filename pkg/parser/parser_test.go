package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeReader はパスと内容のマップでファイルの読み込みを模倣するのだ。
type fakeReader struct {
	files map[string]string
}

func (f *fakeReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func TestStoryboardParser_LoadStoryboard(t *testing.T) {
	reader := &fakeReader{files: map[string]string{
		"output/storyboard.json": `{
			"title": "The Voyage",
			"script": "1. An wakes up...",
			"config": {"duration_seconds": 360, "style": "Modern Anime", "aspect_ratio": "16:9"},
			"total_scenes": 45,
			"scenes": [
				{"scene_id": 1, "time_offset_sec": 0, "prompt": "harbor", "references": ["an"]}
			]
		}`,
	}}
	p := NewStoryboardParser(reader)

	board, err := p.LoadStoryboard(context.Background(), "output/storyboard.json")
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if board.Title != "The Voyage" || board.TotalScenes != 45 {
		t.Errorf("ヘッダーのパース結果が不正なのだ: %+v", board)
	}
	if board.Cursor() != 1 {
		t.Errorf("カーソル: 期待値 1, 実際の値 %d", board.Cursor())
	}
	if board.Scenes[0].References[0] != "an" {
		t.Errorf("シーンの参照宣言が欠落しているのだ: %+v", board.Scenes[0])
	}

	t.Run("存在しないパスはエラーになること", func(t *testing.T) {
		if _, err := p.LoadStoryboard(context.Background(), "missing.json"); err == nil {
			t.Error("エラーになるべきなのだ")
		}
	})

	t.Run("壊れたJSONはエラーになること", func(t *testing.T) {
		broken := NewStoryboardParser(&fakeReader{files: map[string]string{"x.json": "{broken"}})
		if _, err := broken.LoadStoryboard(context.Background(), "x.json"); err == nil {
			t.Error("エラーになるべきなのだ")
		}
	})
}

func TestStoryboardParser_LoadRoster(t *testing.T) {
	reader := &fakeReader{files: map[string]string{
		"output/roster.json": `[
			{"id": "u1", "name": "An", "short_id": "an", "kind": "character", "description": "a fisherman"}
		]`,
	}}
	p := NewStoryboardParser(reader)

	roster, err := p.LoadRoster(context.Background(), "output/roster.json")
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if len(roster) != 1 || roster[0].ShortID != "an" {
		t.Errorf("ロスターのパース結果が不正なのだ: %+v", roster)
	}
}

func TestStoryboardParser_LoadText(t *testing.T) {
	reader := &fakeReader{files: map[string]string{
		"idea.txt": "  a fisherman finds a treasure map  \n",
	}}
	p := NewStoryboardParser(reader)

	text, err := p.LoadText(context.Background(), "idea.txt")
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if text != "a fisherman finds a treasure map" {
		t.Errorf("前後の空白は取り除かれるべきなのだ: %q", text)
	}
}
