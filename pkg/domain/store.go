package domain

import "sync"

// SceneStore は生成済みシーンの順序付きコレクションです。
// 一括追記はバッチ生成コントローラーのみが行い、画像生成フローは
// シーン番号を指すピンポイントの更新のみを行います。異なる番号への
// 同時更新は安全ですが、同一ストアに対する「全シーン画像生成」の
// 多重起動は呼び出し側の責務で避けてください（内部ガードはありません）。
type SceneStore struct {
	mu     sync.RWMutex
	scenes []Scene
}

// NewSceneStore は空のシーンストアを生成します。
func NewSceneStore() *SceneStore {
	return &SceneStore{}
}

// Replace は保持内容を丸ごと置き換えます。新しいトップレベル実行の開始時に使います。
func (st *SceneStore) Replace(scenes []Scene) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scenes = append([]Scene(nil), scenes...)
}

// Append はバッチ1回分のシーンを末尾に追記するのだ。
func (st *SceneStore) Append(scenes ...Scene) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.scenes = append(st.scenes, scenes...)
}

// Len は保持しているシーン数を返します。
func (st *SceneStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.scenes)
}

// Scenes は保持内容の防御的コピーを返します。
func (st *SceneStore) Scenes() []Scene {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return append([]Scene(nil), st.scenes...)
}

// Get はシーン番号（1始まり）で1件を取得します。
func (st *SceneStore) Get(index int) (Scene, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.scenes {
		if s.Index == index {
			return s, true
		}
	}
	return Scene{}, false
}

// SetImage は指定シーンの生成済み画像パスを記録します。見つかった場合 true を返します。
func (st *SceneStore) SetImage(index int, path string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.scenes {
		if st.scenes[i].Index == index {
			st.scenes[i].ImagePath = path
			return true
		}
	}
	return false
}

// SetPrompt は指定シーンのプロンプト本文を書き換えます（ユーザー編集用）。
func (st *SceneStore) SetPrompt(index int, prompt string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.scenes {
		if st.scenes[i].Index == index {
			st.scenes[i].Prompt = prompt
			return true
		}
	}
	return false
}

// SetInFlight は指定シーンの画像生成中フラグを更新します。
func (st *SceneStore) SetInFlight(index int, inFlight bool) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i := range st.scenes {
		if st.scenes[i].Index == index {
			st.scenes[i].InFlight = inFlight
			return true
		}
	}
	return false
}
