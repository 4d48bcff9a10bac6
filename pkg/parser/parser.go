// Package parser は永続化された成果物（ストーリーボード・登場要素一覧）と
// 入力テキストの読み込みを提供します。GCS URI とローカルパスの両方を扱えます。
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// InputReader は入力ソースを開くための契約です。remoteio.InputReader が満たします。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Parser は成果物を読み込むためのインターフェースを定義します。
type Parser interface {
	LoadStoryboard(ctx context.Context, fullPath string) (*domain.Storyboard, error)
	LoadRoster(ctx context.Context, fullPath string) (domain.Roster, error)
	LoadText(ctx context.Context, fullPath string) (string, error)
}

// StoryboardParser は JSON 形式の成果物を解析する構造体です。
type StoryboardParser struct {
	reader InputReader
}

// NewStoryboardParser は新しい StoryboardParser インスタンスを生成します。
func NewStoryboardParser(r InputReader) *StoryboardParser {
	return &StoryboardParser{reader: r}
}

// LoadStoryboard は指定された GCS URI やローカルファイルパスなどから
// ストーリーボードを読み込み、解析して返します。再開フローの入口です。
func (p *StoryboardParser) LoadStoryboard(ctx context.Context, fullPath string) (*domain.Storyboard, error) {
	slog.InfoContext(ctx, "ストーリーボードを読み込んでいます", "path", fullPath)
	rc, err := p.reader.Open(ctx, fullPath)
	if err != nil {
		return nil, fmt.Errorf("ストーリーボードのオープンに失敗しました (%s): %w", fullPath, err)
	}
	defer rc.Close()

	board := &domain.Storyboard{}
	if err := json.NewDecoder(rc).Decode(board); err != nil {
		return nil, fmt.Errorf("ストーリーボードJSONのパースに失敗しました: %w", err)
	}
	return board, nil
}

// LoadRoster は登場要素一覧を読み込んで解析します。
func (p *StoryboardParser) LoadRoster(ctx context.Context, fullPath string) (domain.Roster, error) {
	slog.InfoContext(ctx, "登場要素一覧を読み込んでいます", "path", fullPath)
	rc, err := p.reader.Open(ctx, fullPath)
	if err != nil {
		return nil, fmt.Errorf("登場要素一覧のオープンに失敗しました (%s): %w", fullPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("登場要素一覧の読み込みに失敗しました: %w", err)
	}
	return domain.GetRoster(data)
}

// LoadText は題材や脚本などのプレーンテキストを読み込みます。
func (p *StoryboardParser) LoadText(ctx context.Context, fullPath string) (string, error) {
	rc, err := p.reader.Open(ctx, fullPath)
	if err != nil {
		return "", fmt.Errorf("テキストファイルのオープンに失敗しました (%s): %w", fullPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("テキストファイルの読み込みに失敗しました: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
