package asset

import (
	"reflect"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func testRoster() domain.Roster {
	return domain.Roster{
		{ID: "uuid-1", ShortID: "an", Name: "An", ImageURL: "gs://bucket/an.png"},
		{ID: "uuid-2", ShortID: "duc", Name: "Đức", ImageURL: "gs://bucket/duc.png"},
		{ID: "uuid-3", ShortID: "sword", Name: "Sword", ImageURL: "gs://bucket/sword.png"},
		{ID: "uuid-4", ShortID: "map", Name: "Map", ImageURL: "gs://bucket/map.png"},
		{ID: "uuid-5", ShortID: "boat", Name: "Boat", ImageURL: ""}, // 画像未登録
	}
}

func TestResolveReferences(t *testing.T) {
	roster := testRoster()

	t.Run("宣言順のまま先頭3件で打ち切ること", func(t *testing.T) {
		got := ResolveReferences([]string{"an", "duc", "sword", "map"}, roster, "")
		want := []string{"gs://bucket/an.png", "gs://bucket/duc.png", "gs://bucket/sword.png"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("期待値 %v, 実際の値 %v", want, got)
		}
	})

	t.Run("未登録IDと画像なし要素はスキップすること", func(t *testing.T) {
		got := ResolveReferences([]string{"ghost", "boat", "map"}, roster, "")
		want := []string{"gs://bucket/map.png"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("期待値 %v, 実際の値 %v", want, got)
		}
	})

	t.Run("スキップ分は後続で埋めること", func(t *testing.T) {
		got := ResolveReferences([]string{"an", "boat", "duc", "sword", "map"}, roster, "")
		want := []string{"gs://bucket/an.png", "gs://bucket/duc.png", "gs://bucket/sword.png"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("期待値 %v, 実際の値 %v", want, got)
		}
	})

	t.Run("overrideIDは単独で優先されること", func(t *testing.T) {
		got := ResolveReferences([]string{"an", "duc"}, roster, "map")
		want := []string{"gs://bucket/map.png"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("期待値 %v, 実際の値 %v", want, got)
		}
	})

	t.Run("overrideIDが無効ならnilを返すこと", func(t *testing.T) {
		if got := ResolveReferences([]string{"an"}, roster, "ghost"); got != nil {
			t.Errorf("期待値 nil, 実際の値 %v", got)
		}
	})

	t.Run("宣言なしはnilを返すこと", func(t *testing.T) {
		if got := ResolveReferences(nil, roster, ""); got != nil {
			t.Errorf("期待値 nil, 実際の値 %v", got)
		}
	})
}

func TestGenerateIndexedPath(t *testing.T) {
	got, err := GenerateIndexedPath("output/scene.png", 3)
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}
	if got != "output/scene_3.png" {
		t.Errorf("期待値 'output/scene_3.png', 実際の値 '%s'", got)
	}
}

func TestSceneFileRegex(t *testing.T) {
	if !SceneFileRegex.MatchString("scene_12.png") {
		t.Error("scene_12.png に一致すべきなのだ")
	}
	if SceneFileRegex.MatchString("scene.png") {
		t.Error("連番なしの scene.png に一致してはいけないのだ")
	}
}
