package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session は1つのキャプチャセッションを表す
// コントローラーはセッション要求ごとに1つ作成される
type Session struct {
	ID         string      // セッションの一意識別子
	Controller *Controller // セッションのコントローラー
	CreatedAt  time.Time   // 作成時刻
}

// Manager は複数のキャプチャセッションの統合管理を担う
type Manager struct {
	enumerator Enumerator
	sessions   map[string]*Session
	mu         sync.RWMutex

	// 制約の省略時に使うデフォルト設定
	defaults Constraints
}

// NewManager は新しいManagerを作成する
func NewManager(enumerator Enumerator, defaults Constraints) *Manager {
	return &Manager{
		enumerator: enumerator,
		sessions:   make(map[string]*Session),
		defaults:   defaults,
	}
}

// CreateSession は制約から新しいセッションを作成する
// 幅・高さ・フレームレートが未指定の場合はデフォルト値で補完する
func (m *Manager) CreateSession(constraints Constraints) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if constraints.Width <= 0 {
		constraints.Width = m.defaults.Width
	}
	if constraints.Height <= 0 {
		constraints.Height = m.defaults.Height
	}
	if constraints.FrameRate <= 0 {
		constraints.FrameRate = m.defaults.FrameRate
	}

	session := &Session{
		ID:         uuid.New().String(),
		Controller: NewController(m.enumerator, constraints),
		CreatedAt:  time.Now(),
	}

	m.sessions[session.ID] = session
	return session
}

// GetSession は指定されたIDのセッションを取得する
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	return session, exists
}

// RemoveSession はセッションを削除する
// キャプチャ中の場合は先に停止する
func (m *Manager) RemoveSession(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[id]
	if exists {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("セッションが見つかりません: %s", id)
	}

	if session.Controller.IsCapturing() {
		if err := session.Controller.StopCapture(); err != nil {
			return fmt.Errorf("セッション %s の停止に失敗: %w", id, err)
		}
	}

	return nil
}

// Sessions は現在管理されているセッション一覧を返す
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Shutdown は全セッションを停止して管理対象から外す
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var stopErrors []error
	for _, session := range sessions {
		if session.Controller.IsCapturing() {
			if err := session.Controller.StopCapture(); err != nil {
				stopErrors = append(stopErrors, fmt.Errorf("セッション %s の停止に失敗: %w", session.ID, err))
			}
		}
	}

	if len(stopErrors) > 0 {
		return fmt.Errorf("一部のセッション停止に失敗: %v", stopErrors)
	}

	return nil
}

// Enumerator はこのマネージャーが使用するEnumeratorを返す
func (m *Manager) Enumerator() Enumerator {
	return m.enumerator
}
