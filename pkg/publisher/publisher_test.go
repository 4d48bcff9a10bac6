package publisher

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	imgdom "github.com/shouni/gemini-image-kit/ports"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

type fakeWriter struct {
	files map[string][]byte
	mimes map[string]string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{files: map[string][]byte{}, mimes: map[string]string{}}
}

func (f *fakeWriter) Write(_ context.Context, path string, data io.Reader, mimeType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[path] = b
	f.mimes[path] = mimeType
	return nil
}

func testBoard() domain.Storyboard {
	board := domain.Storyboard{
		Title: "The Voyage",
		Config: domain.RunConfig{
			DurationSeconds: 24,
			Style:           "Modern Anime",
			AspectRatio:     "16:9",
		},
		TotalScenes: 3,
	}
	for i := 1; i <= 3; i++ {
		s := domain.NewScene(i, domain.SceneDraft{
			Prompt:     fmt.Sprintf("(an) shot %d of the harbor", i),
			References: []string{"an"},
		})
		board.Scenes = append(board.Scenes, s)
	}
	board.Scenes[0].Dialogue = "出航なのだ！"
	board.Scenes[0].ImagePath = "output/images/scene_1.png"
	return board
}

func TestBuildPromptsText(t *testing.T) {
	text := BuildPromptsText(testBoard())

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("行数: 期待値 3, 実際の値 %d", len(lines))
	}
	if lines[0] != "1. Style: Modern Anime. (an) shot 1 of the harbor" {
		t.Errorf("行フォーマットが不正なのだ: %q", lines[0])
	}
}

func TestBuildPromptsText_NoStyle(t *testing.T) {
	board := testBoard()
	board.Config.Style = ""
	text := BuildPromptsText(board)
	if strings.Contains(text, "Style:") {
		t.Error("スタイル未設定時に Style: を出力してはいけないのだ")
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(testBoard())

	for _, want := range []string{
		"# The Voyage",
		"## Scene 1 (00:00)",
		"## Scene 2 (00:08)",
		"## Scene 3 (00:16)",
		"![Scene 1](output/images/scene_1.png)",
		"- Dialogue: 出航なのだ！",
		"- References: an",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdownに %q が含まれるべきなのだ", want)
		}
	}
}

func TestPublisher_Publish(t *testing.T) {
	writer := newFakeWriter()
	p := NewStoryboardPublisher(writer, nil)

	result, err := p.Publish(context.Background(), testBoard(), nil, Options{OutputDir: "output"})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	if len(writer.files[result.StoryboardPath]) == 0 {
		t.Error("storyboard.json が書き出されるべきなのだ")
	}
	if len(writer.files[result.PromptsPath]) == 0 {
		t.Error("prompts.txt が書き出されるべきなのだ")
	}
	if len(writer.files[result.MarkdownPath]) == 0 {
		t.Error("storyboard.md が書き出されるべきなのだ")
	}

	// 永続化したJSONがそのまま復元できること
	var restored domain.Storyboard
	if err := json.Unmarshal(writer.files[result.StoryboardPath], &restored); err != nil {
		t.Fatalf("storyboard.json の復元に失敗したのだ: %v", err)
	}
	if restored.Cursor() != 3 || restored.TotalScenes != 3 {
		t.Errorf("復元結果が不正なのだ: cursor=%d total=%d", restored.Cursor(), restored.TotalScenes)
	}

	if result.HTMLPath != "" {
		t.Error("ランナー未指定時はHTML出力をスキップすべきなのだ")
	}

	// プレビュー側の画像リンクは markdown からの相対パスになること
	if md := string(writer.files[result.MarkdownPath]); !strings.Contains(md, "![Scene 1](images/scene_1.png)") {
		t.Errorf("Markdownの画像リンクが相対パスになっていないのだ: %s", md)
	}
}

func TestPublisher_Publish_InlineImages(t *testing.T) {
	writer := newFakeWriter()
	p := NewStoryboardPublisher(writer, nil)
	reader := &fakeImageReader{files: map[string][]byte{
		"output/images/scene_1.png": []byte("png-bytes"),
	}}

	opts := Options{OutputDir: "output", InlineImages: true}
	result, err := p.Publish(context.Background(), testBoard(), reader, opts)
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	wantURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	if md := string(writer.files[result.MarkdownPath]); !strings.Contains(md, wantURI) {
		t.Errorf("Markdownに画像が data URI として埋め込まれるべきなのだ: %s", md)
	}

	// storyboard.json 側はファイルパスのまま保存されること
	var restored domain.Storyboard
	if err := json.Unmarshal(writer.files[result.StoryboardPath], &restored); err != nil {
		t.Fatalf("storyboard.json の復元に失敗したのだ: %v", err)
	}
	if restored.Scenes[0].ImagePath != "output/images/scene_1.png" {
		t.Errorf("永続化側の画像パスが書き換わってしまったのだ: %s", restored.Scenes[0].ImagePath)
	}
}

type fakeImageReader struct {
	files map[string][]byte
}

func (f *fakeImageReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestPublisher_ExportImagesZip(t *testing.T) {
	writer := newFakeWriter()
	p := NewStoryboardPublisher(writer, nil)
	reader := &fakeImageReader{files: map[string][]byte{
		"output/images/scene_1.png": []byte("png-bytes"),
	}}

	path, err := p.ExportImagesZip(context.Background(), testBoard(), reader, Options{OutputDir: "output"})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(writer.files[path]), int64(len(writer.files[path])))
	if err != nil {
		t.Fatalf("ZIPとして読めないのだ: %v", err)
	}
	// 画像を持つのはシーン1だけなので、エントリは1件のみ
	if len(zr.File) != 1 || zr.File[0].Name != "scene_1.png" {
		t.Errorf("ZIPエントリが不正なのだ: %+v", zr.File)
	}
}

func TestPublisher_ExportImagesZip_RenamesNonStandardFiles(t *testing.T) {
	writer := newFakeWriter()
	p := NewStoryboardPublisher(writer, nil)
	board := testBoard()
	// 標準の scene_{N}.png 命名に従わないパスはシーン番号から付け直すのだ
	board.Scenes[0].ImagePath = "output/pictures/final-take.png"
	reader := &fakeImageReader{files: map[string][]byte{
		"output/pictures/final-take.png": []byte("png-bytes"),
	}}

	path, err := p.ExportImagesZip(context.Background(), board, reader, Options{OutputDir: "output"})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(writer.files[path]), int64(len(writer.files[path])))
	if err != nil {
		t.Fatalf("ZIPとして読めないのだ: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "scene_1.png" {
		t.Errorf("ZIPエントリが不正なのだ: %+v", zr.File)
	}
}

func TestPublisher_ExportImagesZip_NoImages(t *testing.T) {
	p := NewStoryboardPublisher(newFakeWriter(), nil)
	board := testBoard()
	for i := range board.Scenes {
		board.Scenes[i].ImagePath = ""
	}

	if _, err := p.ExportImagesZip(context.Background(), board, &fakeImageReader{}, Options{OutputDir: "output"}); err == nil {
		t.Error("画像0枚のZIPはエラーになるべきなのだ")
	}
}

func TestPublisher_SaveRoster(t *testing.T) {
	writer := newFakeWriter()
	p := NewStoryboardPublisher(writer, nil)
	roster := domain.Roster{
		{ID: "u1", ShortID: "an", Name: "An", Kind: domain.KindCharacter},
	}

	path, err := p.SaveRoster(context.Background(), roster, Options{OutputDir: "output"})
	if err != nil {
		t.Fatalf("予期しないエラーなのだ: %v", err)
	}

	restored, err := domain.GetRoster(writer.files[path])
	if err != nil {
		t.Fatalf("roster.json の復元に失敗したのだ: %v", err)
	}
	if len(restored) != 1 || restored[0].ShortID != "an" {
		t.Errorf("復元結果が不正なのだ: %+v", restored)
	}
}

func TestDataURIFromResponse(t *testing.T) {
	resp := &imgdom.ImageResponse{Data: []byte("png-bytes"), MimeType: "image/png"}

	got := DataURIFromResponse(resp)
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	if got != want {
		t.Errorf("data URI が不正なのだ: %s", got)
	}

	t.Run("MIMEタイプ未設定はPNG扱いなのだ", func(t *testing.T) {
		got := DataURIFromResponse(&imgdom.ImageResponse{Data: []byte{1}})
		if !strings.HasPrefix(got, "data:image/png;base64,") {
			t.Errorf("既定MIMEが適用されるべきなのだ: %s", got)
		}
	})

	t.Run("空データは空文字なのだ", func(t *testing.T) {
		if got := DataURIFromResponse(nil); got != "" {
			t.Errorf("nil応答は空文字になるべきなのだ: %s", got)
		}
		if got := DataURIFromResponse(&imgdom.ImageResponse{}); got != "" {
			t.Errorf("空データは空文字になるべきなのだ: %s", got)
		}
	})
}
