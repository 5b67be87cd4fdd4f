package capture

import (
	"fmt"
	"sync"
)

// MockDevice はテスト用のモックデバイス定義
type MockDevice struct {
	Name        string // デバイス名
	FrontFacing bool   // フロントカメラかどうか
	FailQuery   bool   // 向きの照会を失敗させる
	FailCreate  bool   // キャプチャラーの生成を失敗させる
}

// MockEnumerator はテスト用のモックEnumerator実装
type MockEnumerator struct {
	devices []MockDevice
	mu      sync.Mutex

	// 生成されたキャプチャラーの記録
	created []*MockCapturer
}

// NewMockEnumerator は新しいMockEnumeratorを作成する
func NewMockEnumerator(devices ...MockDevice) *MockEnumerator {
	return &MockEnumerator{devices: devices}
}

// DeviceNames はモックデバイス名を定義順で返す
func (m *MockEnumerator) DeviceNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.devices))
	for _, d := range m.devices {
		names = append(names, d.Name)
	}
	return names
}

// IsFrontFacing はモックデバイスの向きを返す
func (m *MockEnumerator) IsFrontFacing(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.devices {
		if d.Name == name {
			if d.FailQuery {
				return false, fmt.Errorf("モック: 向きの照会に失敗: %s", name)
			}
			return d.FrontFacing, nil
		}
	}
	return false, fmt.Errorf("モック: デバイスが見つかりません: %s", name)
}

// CreateCapturer はモックキャプチャラーを生成する
func (m *MockEnumerator) CreateCapturer(name string, events EventsHandler) Capturer {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.devices {
		if d.Name == name {
			if d.FailCreate {
				return nil
			}
			capturer := &MockCapturer{enumerator: m, deviceName: name, isFront: d.FrontFacing, events: events}
			m.created = append(m.created, capturer)
			return capturer
		}
	}
	return nil
}

// AddDevice はテスト用にデバイスを追加する
func (m *MockEnumerator) AddDevice(device MockDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = append(m.devices, device)
}

// CreatedCapturers は生成されたキャプチャラーの一覧を返す
func (m *MockEnumerator) CreatedCapturers() []*MockCapturer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockCapturer(nil), m.created...)
}

// MockCapturer はテスト用のモックCapturer実装
//
// SwitchCamera は同期的にコールバックを呼ぶ
// SwitchResults に向きの列を設定すると、切り替えごとに順番に報告される
// （列を使い切ると最後の値を繰り返す）
type MockCapturer struct {
	enumerator *MockEnumerator
	deviceName string
	isFront    bool
	events     EventsHandler
	mu         sync.Mutex

	started bool

	// テスト制御用
	SwitchResults []bool // 切り替えごとに報告する向きの列
	SwitchError   string // 空でなければ切り替えを失敗させる
	FailStart     bool   // Startを失敗させる
	Hold          bool   // trueの場合、Releaseが呼ばれるまで完了報告を保留する

	switchCalls int
	resultIdx   int
	heldDone    func(isFront bool)
	heldResult  bool
}

// Start はモックキャプチャを開始する
func (m *MockCapturer) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailStart {
		return fmt.Errorf("モック: キャプチャ開始に失敗: %s", m.deviceName)
	}
	m.started = true
	return nil
}

// Stop はモックキャプチャを停止する
func (m *MockCapturer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

// SwitchCamera はモックの切り替えを実行し、同期的にコールバックを呼ぶ
func (m *MockCapturer) SwitchCamera(done func(isFront bool), fail func(message string)) {
	m.mu.Lock()
	m.switchCalls++

	if m.SwitchError != "" {
		message := m.SwitchError
		m.mu.Unlock()
		fail(message)
		return
	}

	if len(m.SwitchResults) > 0 {
		idx := m.resultIdx
		if idx >= len(m.SwitchResults) {
			idx = len(m.SwitchResults) - 1
		}
		m.isFront = m.SwitchResults[idx]
		m.resultIdx++
	} else {
		// 既定では2台構成のように向きが反転する
		m.isFront = !m.isFront
	}

	isFront := m.isFront

	if m.Hold {
		// 非同期完了を模倣する: Releaseまで報告を保留する
		m.heldDone = done
		m.heldResult = isFront
		m.mu.Unlock()
		return
	}

	m.mu.Unlock()
	done(isFront)
}

// Release は保留中の完了報告を発火させる
func (m *MockCapturer) Release() {
	m.mu.Lock()
	done := m.heldDone
	result := m.heldResult
	m.heldDone = nil
	m.mu.Unlock()

	if done != nil {
		done(result)
	}
}

// SwitchCalls は切り替え要求の発行回数を返す
func (m *MockCapturer) SwitchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switchCalls
}

// IsStarted はキャプチャ中かどうかを返す
func (m *MockCapturer) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// DeviceName は対象のデバイス名を返す
func (m *MockCapturer) DeviceName() string {
	return m.deviceName
}
