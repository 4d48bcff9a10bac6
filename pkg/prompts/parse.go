package prompts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ExtractJSON は AI 応答テキストから JSON 本体を取り出します。
// コードフェンス優先、なければ最外の波括弧、どちらも無ければ全文をそのまま返します。
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		return matches[1]
	}

	firstBracket := strings.Index(raw, "{")
	lastBracket := strings.LastIndex(raw, "}")
	if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
		return raw[firstBracket : lastBracket+1]
	}
	return raw
}

// ParseSceneBatch は AI 応答からシーンバッチを取り出します。
// JSON として解釈できない応答とシーン0件の応答は、再試行しても直らない
// 恒久エラーとして扱います。
func ParseSceneBatch(raw string) (domain.SceneBatchResponse, error) {
	var resp domain.SceneBatchResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &resp); err != nil {
		return domain.SceneBatchResponse{}, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if len(resp.Scenes) == 0 {
		return domain.SceneBatchResponse{}, fmt.Errorf("AIからの応答にシーンが1件も含まれていません (応答抜粋: %q)", truncateString(raw, 200))
	}
	return resp, nil
}

// rosterDraft は roster モードの応答スキーマです。
type rosterDraft struct {
	Characters []entityDraft `json:"characters"`
}

type entityDraft struct {
	Name        string `json:"name"`
	ShortID     string `json:"short_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ParseRoster は AI 応答から登場要素一覧を組み立てます。
// short_id は応答が提示した値を正規化して採用し、欠けている場合のみ名前から導出します。
func ParseRoster(raw string) (domain.Roster, error) {
	var draft rosterDraft
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &draft); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	if len(draft.Characters) == 0 {
		return nil, fmt.Errorf("AIからの応答に登場要素が1件も含まれていません (応答抜粋: %q)", truncateString(raw, 200))
	}

	roster := make(domain.Roster, 0, len(draft.Characters))
	for _, d := range draft.Characters {
		kind := domain.KindCharacter
		if strings.EqualFold(d.Type, "prop") {
			kind = domain.KindProp
		}
		e := domain.NewEntity(d.Name, kind)
		if d.ShortID != "" {
			e.ShortID = domain.NormalizeID(d.ShortID)
		}
		e.Description = d.Description
		roster = append(roster, e)
	}
	return roster, nil
}

// variationsDraft は variations モードの応答スキーマです。
type variationsDraft struct {
	Variations []domain.EntityVariation `json:"variations"`
}

// ParseVariations は AI 応答から外見デザイン代案の一覧を取り出します。
// description が空の代案は画像プロンプトとして使えないため除外します。
func ParseVariations(raw string) ([]domain.EntityVariation, error) {
	var draft variationsDraft
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &draft); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}

	variations := make([]domain.EntityVariation, 0, len(draft.Variations))
	for _, v := range draft.Variations {
		if strings.TrimSpace(v.Description) == "" {
			continue
		}
		variations = append(variations, v)
	}
	if len(variations) == 0 {
		return nil, fmt.Errorf("AIからの応答にデザイン代案が1件も含まれていません (応答抜粋: %q)", truncateString(raw, 200))
	}
	return variations, nil
}

// truncateString は maxLen 文字（ルーン単位）で切り詰めます。
// バイト単位で切るとマルチバイト文字の途中で壊れるため、ルーン境界で切ります。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
