package domain

import (
	"testing"
)

func TestGetRoster(t *testing.T) {
	// 1. 正常系：正しいJSONからロスターが生成されること
	jsonInput := []byte(`[
		{
			"id": "id-1",
			"name": "Nguyễn Văn An",
			"short_id": "an",
			"kind": "character",
			"description": "a young fisherman"
		},
		{
			"id": "id-2",
			"name": "Ancient Sword",
			"short_id": "sword",
			"kind": "prop",
			"description": "rusty blade"
		}
	]`)

	roster, err := GetRoster(jsonInput)
	if err != nil {
		t.Fatalf("正常なJSONでエラーが発生しました: %v", err)
	}

	if len(roster) != 2 {
		t.Fatalf("期待値 2件, 実際の値 %d件", len(roster))
	}
	if roster[0].Kind != KindCharacter || roster[1].Kind != KindProp {
		t.Errorf("種別が正しくパースされていません: %+v", roster)
	}

	// 2. 異常系：不正なJSONでエラーが返ること
	_, err = GetRoster([]byte(`{ invalid json }`))
	if err == nil {
		t.Error("不正なJSONでエラーが発生しませんでした")
	}
}

func TestRoster_CRUD(t *testing.T) {
	var roster Roster

	e := NewEntity("Nguyễn Văn An", KindCharacter)
	roster.Add(e)

	t.Run("追加したエンティティのShortIDが正規化されていること", func(t *testing.T) {
		if e.ShortID != "an" {
			t.Errorf("期待値 'an', 実際の値 '%s'", e.ShortID)
		}
	})

	t.Run("Updateで説明文を書き換えられること", func(t *testing.T) {
		ok := roster.Update(e.ID, func(ent *Entity) {
			ent.Description = "updated"
		})
		if !ok {
			t.Fatal("既存IDのUpdateが false を返しました")
		}
		if roster[0].Description != "updated" {
			t.Errorf("説明文が更新されていません: %q", roster[0].Description)
		}
	})

	t.Run("存在しないIDのUpdateは false を返すこと", func(t *testing.T) {
		if roster.Update("missing", func(*Entity) {}) {
			t.Error("存在しないIDで true が返りました")
		}
	})

	t.Run("Removeで取り除けること", func(t *testing.T) {
		if !roster.Remove(e.ID) {
			t.Fatal("既存IDのRemoveが false を返しました")
		}
		if len(roster) != 0 {
			t.Errorf("削除後も %d 件残っています", len(roster))
		}
	})
}

func TestRoster_FindByRef(t *testing.T) {
	roster := Roster{
		{ID: "uuid-a", Name: "An", ShortID: "an", Kind: KindCharacter, ImageURL: "a.png"},
		{ID: "uuid-b", Name: "Another An", ShortID: "an", Kind: KindCharacter, ImageURL: "b.png"},
		{ID: "uuid-c", Name: "Sword", ShortID: "sword", Kind: KindProp},
	}

	t.Run("ShortIDで一致すること", func(t *testing.T) {
		got := roster.FindByRef("sword")
		if got == nil || got.ID != "uuid-c" {
			t.Errorf("期待値 uuid-c, 実際の値 %+v", got)
		}
	})

	t.Run("不透明IDでも一致すること", func(t *testing.T) {
		got := roster.FindByRef("uuid-b")
		if got == nil || got.ID != "uuid-b" {
			t.Errorf("期待値 uuid-b, 実際の値 %+v", got)
		}
	})

	// ShortID の衝突は検出しない方針。先に登録されたものが勝つこと。
	t.Run("ShortID衝突時は先勝ちになること", func(t *testing.T) {
		got := roster.FindByRef("an")
		if got == nil || got.ID != "uuid-a" {
			t.Errorf("期待値 uuid-a, 実際の値 %+v", got)
		}
	})

	t.Run("未登録の参照はnilになること", func(t *testing.T) {
		if got := roster.FindByRef("ghost"); got != nil {
			t.Errorf("未登録参照で %+v が返りました", got)
		}
	})
}
