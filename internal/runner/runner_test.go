package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/retry"
)

// memReader は保存済みファイルをメモリ上から読み出すフェイクなのだ。
type memReader struct {
	files map[string][]byte
}

func (m *memReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// memWriter は書き込まれた成果物をメモリ上に貯めるフェイクなのだ。
type memWriter struct {
	files map[string][]byte
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string][]byte{}}
}

func (m *memWriter) Write(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.files[path] = b
	return nil
}

type cannedTextModel struct {
	response string
}

func (c *cannedTextModel) Generate(context.Context, string) (string, error) {
	return c.response, nil
}

type textOnlyFactory struct {
	text generator.TextModel
}

func (f *textOnlyFactory) TextModel(context.Context) (generator.TextModel, error) { return f.text, nil }
func (f *textOnlyFactory) FrameGenerator(context.Context) (generator.FrameGenerator, error) {
	return nil, fmt.Errorf("not used")
}
func (f *textOnlyFactory) AssetUploader(context.Context) (generator.AssetUploader, error) {
	return nil, fmt.Errorf("not used")
}

func newTextComposer(t *testing.T, response string) *generator.StoryboardComposer {
	t.Helper()
	tb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("プロンプトビルダーの初期化に失敗したのだ: %v", err)
	}
	return generator.NewStoryboardComposer(
		&textOnlyFactory{text: &cannedTextModel{response: response}},
		tb,
		prompts.NewScenePromptBuilder("anime style"),
		rate.NewLimiter(rate.Inf, 1),
		retry.NewOrchestrator(nil, time.Millisecond, "text"),
		retry.NewOrchestrator(nil, time.Millisecond, "image"),
	)
}

func testStoryboardJSON(t *testing.T) []byte {
	t.Helper()
	board := domain.Storyboard{
		Title:       "The Voyage",
		Config:      domain.RunConfig{DurationSeconds: 16, Style: "Modern Anime", AspectRatio: "16:9"},
		TotalScenes: 2,
	}
	for i := 1; i <= 2; i++ {
		board.Scenes = append(board.Scenes, domain.NewScene(i, domain.SceneDraft{
			Prompt: fmt.Sprintf("shot %d of the harbor", i),
		}))
	}
	data, err := json.Marshal(board)
	if err != nil {
		t.Fatalf("ストーリーボードのJSON化に失敗したのだ: %v", err)
	}
	return data
}

func TestEditRunner_RewritesScenePrompt(t *testing.T) {
	reader := &memReader{files: map[string][]byte{
		"output/storyboard.json": testStoryboardJSON(t),
	}}
	writer := newMemWriter()

	opts := config.GenerateOptions{OutputDir: "output", SceneIndex: 2, PromptText: "revised close-up in the rain"}
	er := NewEditRunner(opts, parser.NewStoryboardParser(reader), publisher.NewStoryboardPublisher(writer, nil))

	if err := er.Run(context.Background()); err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	var saved domain.Storyboard
	if err := json.Unmarshal(writer.files["output/storyboard.json"], &saved); err != nil {
		t.Fatalf("保存されたストーリーボードが読めないのだ: %v", err)
	}
	if saved.Scenes[1].Prompt != "revised close-up in the rain" {
		t.Errorf("シーン2のプロンプトが書き換わるべきなのだ: %q", saved.Scenes[1].Prompt)
	}
	if saved.Scenes[0].Prompt != "shot 1 of the harbor" {
		t.Errorf("シーン1は変更されないべきなのだ: %q", saved.Scenes[0].Prompt)
	}
}

func TestEditRunner_SceneNotFound(t *testing.T) {
	reader := &memReader{files: map[string][]byte{
		"output/storyboard.json": testStoryboardJSON(t),
	}}

	opts := config.GenerateOptions{OutputDir: "output", SceneIndex: 99, PromptText: "x"}
	er := NewEditRunner(opts, parser.NewStoryboardParser(reader), publisher.NewStoryboardPublisher(newMemWriter(), nil))

	if err := er.Run(context.Background()); err == nil {
		t.Error("存在しないシーン番号はエラーになるべきなのだ")
	}
}

func TestRosterRunner_Variations(t *testing.T) {
	rosterJSON := `[{"id": "u1", "name": "An", "short_id": "an", "kind": "character", "description": "a fisherman"}]`
	reader := &memReader{files: map[string][]byte{
		"output/roster.json": []byte(rosterJSON),
	}}
	writer := newMemWriter()

	composer := newTextComposer(t, `{
		"variations": [
			{"title": "Battle-worn veteran", "description": "a scarred fisherman in patched oilskins"},
			{"title": "Young dreamer", "description": "a bright-eyed fisherman in a straw hat"}
		]
	}`)

	opts := config.GenerateOptions{OutputDir: "output", VariationsFor: "an", Style: "Modern Anime"}
	rr := NewRosterRunner(opts, nil, composer, parser.NewStoryboardParser(reader), publisher.NewStoryboardPublisher(writer, nil))

	if err := rr.Run(context.Background()); err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	var variations []domain.EntityVariation
	if err := json.Unmarshal(writer.files["output/variations_an.json"], &variations); err != nil {
		t.Fatalf("保存された代案一覧が読めないのだ: %v", err)
	}
	if len(variations) != 2 || variations[0].Title != "Battle-worn veteran" {
		t.Errorf("代案の保存結果が不正なのだ: %+v", variations)
	}
}

func TestRosterRunner_Variations_UnknownEntity(t *testing.T) {
	reader := &memReader{files: map[string][]byte{
		"output/roster.json": []byte(`[{"id": "u1", "name": "An", "short_id": "an", "kind": "character"}]`),
	}}

	opts := config.GenerateOptions{OutputDir: "output", VariationsFor: "nobody"}
	rr := NewRosterRunner(opts, nil, newTextComposer(t, "{}"), parser.NewStoryboardParser(reader), publisher.NewStoryboardPublisher(newMemWriter(), nil))

	if err := rr.Run(context.Background()); err == nil {
		t.Error("未登録の登場要素はエラーになるべきなのだ")
	}
}
