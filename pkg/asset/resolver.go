// Package asset は出力パスの解決と、シーンが宣言する登場要素参照から
// 画像生成に渡す参照画像 URL への変換を提供します。
package asset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// DefaultImageDir は生成されたシーン画像を格納するデフォルトのディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultStoryboardJson はストーリーボードの永続化ファイル名です。再開にも使います。
	DefaultStoryboardJson = "storyboard.json"
	// DefaultRosterJson は登場要素一覧の永続化ファイル名です。
	DefaultRosterJson = "roster.json"
	// DefaultStoryboardName はストーリーボードのデフォルト Markdown ファイル名です。
	DefaultStoryboardName = "storyboard.md"
	// DefaultPromptsName はシーンプロンプト一覧のテキストファイル名です。
	DefaultPromptsName = "prompts.txt"
	// DefaultSceneFileName はシーン画像の共通のベースファイル名です。
	DefaultSceneFileName = "scene.png"

	// MaxReferenceImages は画像生成1回に添付できる参照画像の上限です。
	MaxReferenceImages = 3
)

// SceneFileRegex はシーン画像 (scene_1.png 等) に一致します
var SceneFileRegex = createIndexedRegex(DefaultSceneFileName)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// ResolveBaseURL は、入力パス（URLまたはローカルパス）から
// 親ディレクトリのパスを解決し、末尾がセパレータで終わるように正規化します。
func ResolveBaseURL(rawPath string) string {
	return urlpath.ResolveBaseURL(rawPath)
}

// GenerateIndexedPath は、指定されたベースパスの拡張子の前に連番を挿入し、
// 新しいパス文字列を生成します。index は1以上の整数である必要があります。
// 例: "path/to/scene.png", 1 -> "path/to/scene_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// ResolveReferences はシーンが宣言する参照 ID 列を、登場要素表に登録済みの
// 参照画像 URL へ解決します。overrideID が指定された場合はその要素を単独で使います。
//
// 解決ルール:
//   - 宣言順を保ったまま、画像を持つ要素だけを拾います。
//   - 表に無い ID と画像未登録の要素は黙ってスキップします（エラーにしません）。
//   - 上限 MaxReferenceImages 件で打ち切ります。
func ResolveReferences(declared []string, roster domain.Roster, overrideID string) []string {
	if overrideID != "" {
		if e := roster.FindByRef(overrideID); e != nil && e.ImageURL != "" {
			return []string{e.ImageURL}
		}
		return nil
	}

	var urls []string
	for _, ref := range declared {
		if len(urls) >= MaxReferenceImages {
			break
		}
		e := roster.FindByRef(ref)
		if e == nil || e.ImageURL == "" {
			continue
		}
		urls = append(urls, e.ImageURL)
	}
	return urls
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "scene.png" -> ^scene_\d+\.png$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)

	// baseName と ext の両方を QuoteMeta でエスケープすることで
	// ドットや特殊文字が含まれていても正しくリテラルとしてマッチします。
	pattern := fmt.Sprintf(`^%s_\d+%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
