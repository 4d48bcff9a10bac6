// Package prompts はストーリーボード生成の各段階（登場要素・脚本・シーン分割）で
// AI モデルに渡すプロンプトの構築と、応答からの構造化データ抽出を提供します。
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// ModeRoster は物語の題材から登場要素一覧（JSON）を生成するモードです。
	ModeRoster = "roster"
	// ModeScreenplay は登場要素を踏まえて脚本テキストを生成するモードです。
	ModeScreenplay = "screenplay"
	// ModeScenes は脚本をバッチ単位でシーン列（JSON）に分割するモードです。
	ModeScenes = "scenes"
	// ModeRefine は題材をショート動画向けに磨き上げるモードです。
	ModeRefine = "refine"
	// ModeVariations は既存の登場要素の外見デザイン代案（JSON）を生成するモードです。
	ModeVariations = "variations"
)

var (
	//go:embed roster.md
	RosterPrompt string
	//go:embed screenplay.md
	ScreenplayPrompt string
	//go:embed scenes.md
	ScenesPrompt string
	//go:embed refine.md
	RefinePrompt string
	//go:embed variations.md
	VariationsPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeRoster:     RosterPrompt,
	ModeScreenplay: ScreenplayPrompt,
	ModeScenes:     ScenesPrompt,
	ModeRefine:     RefinePrompt,
	ModeVariations: VariationsPrompt,
}

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
// モードごとに使うフィールドは異なり、未使用フィールドはゼロ値のままで構いません。
type TemplateData struct {
	Style            string
	StoryIdea        string
	AspectRatio      string
	DialogueEnabled  bool
	DialogueLanguage string

	// 登場要素生成（roster モード）
	CharacterCount int
	PropCount      int

	// 外見デザイン代案（variations モード）
	EntityName        string
	EntityDescription string
	VariationCount    int

	// 登場要素の要約（screenplay / scenes / refine モード）
	RosterSummary string
	CompactRoster string

	// シーン分割（scenes モード）
	Screenplay      string
	DurationSeconds int
	SceneDuration   int
	TotalScenes     int
	StartScene      int
	EndScene        int
	BatchCount      int
}

// NewTemplateData は実行設定と登場要素表から共通フィールドを埋めたデータを作るのだ。
func NewTemplateData(cfg domain.RunConfig, roster domain.Roster) TemplateData {
	return TemplateData{
		Style:            cfg.Style,
		AspectRatio:      cfg.AspectRatio,
		DialogueEnabled:  cfg.DialogueEnabled,
		DialogueLanguage: cfg.DialogueLanguage,
		RosterSummary:    roster.Summary(),
		CompactRoster:    roster.CompactSummary(),
		DurationSeconds:  cfg.DurationSeconds,
		SceneDuration:    domain.SceneDurationSeconds,
		TotalScenes:      cfg.TotalScenes(),
	}
}

// PromptBuilder は、AIプロンプトを構築する契約です。
type PromptBuilder interface {
	Build(mode string, data TemplateData) (string, error)
}

// TextPromptBuilder はテキスト系プロンプトの構成を管理し、モード選択のロジックを内包します。
type TextPromptBuilder struct {
	templates map[string]*template.Template
}

// NewTextPromptBuilder は TextPromptBuilder を初期化します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	parsedTemplates := make(map[string]*template.Template)
	for mode, content := range allTemplates {
		if content == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' (go:embed) の読み込みに失敗しました: 内容が空です", mode)
		}

		tmpl, err := template.New(mode).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("プロンプト '%s' の解析に失敗: %w", mode, err)
		}
		parsedTemplates[mode] = tmpl
	}

	return &TextPromptBuilder{
		templates: parsedTemplates,
	}, nil
}

// Build は、要求されたモードに応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(mode string, data TemplateData) (string, error) {
	tmpl, ok := b.templates[mode]
	if !ok {
		return "", fmt.Errorf("不明なモードです: '%s'", mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("プロンプトテンプレートの実行に失敗しました: %w", err)
	}

	return sb.String(), nil
}
