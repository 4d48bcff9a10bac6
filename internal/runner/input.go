// Package runner は各サブコマンドの実行単位（Runner）をまとめるのだ。
// 部品の構築は internal/builder、配線は internal/pipeline が担うのだよ。
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-web-exact/v2/extract"
)

// StorySource は URL・ファイル・標準入力のいずれかから物語テキストを読み出すのだ。
type StorySource struct {
	extractor *extract.Extractor
	reader    remoteio.InputReader
}

// NewStorySource は StorySource を生成するのだ。
func NewStorySource(extractor *extract.Extractor, reader remoteio.InputReader) *StorySource {
	return &StorySource{extractor: extractor, reader: reader}
}

// Read は入力ソースの指定に応じて適切な方法でテキストを取得するのだ。
// ファイルパスに '-' を渡すと標準入力から読むのだよ。
func (s *StorySource) Read(ctx context.Context, opts config.GenerateOptions) (string, error) {
	if opts.StoryURL != "" {
		text, _, err := s.extractor.FetchAndExtractText(ctx, opts.StoryURL)
		if err != nil {
			return "", fmt.Errorf("URLからの本文抽出に失敗したのだ: %w", err)
		}
		return strings.TrimSpace(text), nil
	}

	if opts.StoryFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("標準入力の読み取りに失敗したのだ: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	rc, err := s.reader.Open(ctx, opts.StoryFile)
	if err != nil {
		return "", fmt.Errorf("入力ファイル '%s' の読み込みに失敗したのだ: %w", opts.StoryFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("入力ファイル '%s' の読み取りに失敗したのだ: %w", opts.StoryFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// runConfigFromOptions は CLI オプションを1回分の実行設定へ写すのだ。
func runConfigFromOptions(opts config.GenerateOptions) domain.RunConfig {
	return domain.RunConfig{
		DurationSeconds:  opts.DurationSeconds,
		Style:            opts.Style,
		AspectRatio:      opts.AspectRatio,
		DialogueEnabled:  opts.DialogueEnabled,
		DialogueLanguage: opts.DialogueLanguage,
	}
}
