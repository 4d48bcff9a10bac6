package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityKind は登場アセットの種別（キャラクター or 小道具）を表します。
type EntityKind string

const (
	// KindCharacter は人物・生物などの演者アセットです。
	KindCharacter EntityKind = "character"
	// KindProp は小道具・オブジェクトなどの非演者アセットです。
	KindProp EntityKind = "prop"
)

// Entity はストーリーボードに登場するキャラクター／小道具の定義を保持します。
// ShortID はプロンプト中の参照構文で使われる短い識別子で、ユーザーが編集できます。
// ShortID の一意性は意図的に強制しません。衝突した場合の参照解決は先勝ちになります。
type Entity struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ShortID     string     `json:"short_id"`
	Kind        EntityKind `json:"kind"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// String はエンティティの情報を文字列で返すのだ。
func (e Entity) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.ShortID)
}

// NewEntity は名前と種別からエンティティを生成します。ShortID は名前から導出します。
func NewEntity(name string, kind EntityKind) Entity {
	return Entity{
		ID:      uuid.NewString(),
		Name:    name,
		ShortID: NormalizeID(name),
		Kind:    kind,
	}
}

// EntityVariation は既存の登場要素に対する外見デザインの代案です。
// Title は代案の呼び名、Description は差し替え可能な視覚的描写フルテキストです。
type EntityVariation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Roster はユーザーが管理するエンティティの順序付きコレクションです。
type Roster []Entity

// Add はエンティティを末尾に追加するのだ。
func (r *Roster) Add(e Entity) {
	*r = append(*r, e)
}

// Update は ID が一致するエンティティを mutate で書き換えます。
// 見つかった場合 true を返します。
func (r Roster) Update(id string, mutate func(*Entity)) bool {
	for i := range r {
		if r[i].ID == id {
			mutate(&r[i])
			return true
		}
	}
	return false
}

// Remove は ID が一致するエンティティを取り除きます。見つかった場合 true を返します。
// 生成済みのシーンには影響しません（シーンは解決済みデータを自前で保持するため）。
func (r *Roster) Remove(id string) bool {
	for i := range *r {
		if (*r)[i].ID == id {
			*r = append((*r)[:i], (*r)[i+1:]...)
			return true
		}
	}
	return false
}

// Find は ID が一致するエンティティを返します。
func (r Roster) Find(id string) *Entity {
	for i := range r {
		if r[i].ID == id {
			res := r[i]
			return &res
		}
	}
	return nil
}

// FindByRef はシーンが宣言する参照識別子（ShortID または ID）からエンティティを特定します。
// ShortID が衝突している場合は最初に一致したものを返します。
func (r Roster) FindByRef(ref string) *Entity {
	for i := range r {
		if r[i].ShortID == ref || r[i].ID == ref {
			res := r[i]
			return &res
		}
	}
	ref = strings.ToLower(ref)
	for i := range r {
		if strings.ToLower(r[i].ShortID) == ref {
			res := r[i]
			return &res
		}
	}
	return nil
}

// Summary は AI へ渡すロスター要約（1行 = 1エンティティ）を構築します。
func (r Roster) Summary() string {
	var sb strings.Builder
	for _, e := range r {
		sb.WriteString(fmt.Sprintf("ID: %s | Name: %s | Type: %s | Visual: %s\n",
			e.ShortID, e.Name, e.Kind, valueOrNA(e.Description)))
	}
	return sb.String()
}

// CompactSummary はバッチ依頼用の短い要約（カンマ区切り）を構築します。
func (r Roster) CompactSummary() string {
	parts := make([]string, 0, len(r))
	for _, e := range r {
		parts = append(parts, fmt.Sprintf("%s (%s) [%s]", e.ShortID, e.Name, e.Kind))
	}
	return strings.Join(parts, ", ")
}

// GetRoster はJSONバイト列からロスターをパースして返します。
func GetRoster(rosterJSON []byte) (Roster, error) {
	var r Roster
	if err := json.Unmarshal(rosterJSON, &r); err != nil {
		return nil, fmt.Errorf("ロスター情報のJSONパースに失敗しました: %w", err)
	}
	return r, nil
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
