package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"kirikae/internal/capture"
)

// VirtualDevice は仮想カメラデバイスの定義
type VirtualDevice struct {
	Name        string // デバイス名
	FrontFacing bool   // フロントカメラかどうか
}

// VirtualEnumerator は実機なしで動作する仮想バックエンド
// 開発環境やカメラのないホストでの動作確認に使用する
type VirtualEnumerator struct {
	devices  []VirtualDevice
	settings Settings
}

// NewVirtualEnumerator はフロント/リアの2台構成の仮想バックエンドを作成する
func NewVirtualEnumerator(settings Settings) *VirtualEnumerator {
	return &VirtualEnumerator{
		devices: []VirtualDevice{
			{Name: "virtual-front", FrontFacing: true},
			{Name: "virtual-back", FrontFacing: false},
		},
		settings: settings,
	}
}

// NewVirtualEnumeratorWithDevices は任意のデバイス構成の仮想バックエンドを作成する
func NewVirtualEnumeratorWithDevices(settings Settings, devices ...VirtualDevice) *VirtualEnumerator {
	return &VirtualEnumerator{devices: devices, settings: settings}
}

// DeviceNames は仮想デバイス名を定義順で返す
func (e *VirtualEnumerator) DeviceNames() []string {
	names := make([]string, 0, len(e.devices))
	for _, d := range e.devices {
		names = append(names, d.Name)
	}
	return names
}

// IsFrontFacing は仮想デバイスの向きを返す
func (e *VirtualEnumerator) IsFrontFacing(name string) (bool, error) {
	for _, d := range e.devices {
		if d.Name == name {
			return d.FrontFacing, nil
		}
	}
	return false, fmt.Errorf("デバイスが見つかりません: %s", name)
}

// CreateCapturer は仮想キャプチャラーを生成する
func (e *VirtualEnumerator) CreateCapturer(name string, events capture.EventsHandler) capture.Capturer {
	for _, d := range e.devices {
		if d.Name == name {
			return newVirtualCapturer(e, name, e.settings, events)
		}
	}
	return nil
}

// virtualCapturer はテストパターンのフレームを生成するキャプチャラー
type virtualCapturer struct {
	enumerator *VirtualEnumerator
	settings   Settings
	events     capture.EventsHandler

	mu         sync.Mutex
	deviceName string
	running    bool
	stopCh     chan struct{}
	wg         sync.WaitGroup

	frameChan chan []byte
}

func newVirtualCapturer(enumerator *VirtualEnumerator, deviceName string, settings Settings, events capture.EventsHandler) *virtualCapturer {
	return &virtualCapturer{
		enumerator: enumerator,
		settings:   settings,
		events:     events,
		deviceName: deviceName,
		frameChan:  make(chan []byte, 10),
	}
}

// Start はテストパターンの生成を開始する
func (c *virtualCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("キャプチャラーは既に開始されています: %s", c.deviceName)
	}

	c.events.OnCameraOpening(c.deviceName)

	frame, err := testPatternJPEG(c.settings.Width, c.settings.Height)
	if err != nil {
		return fmt.Errorf("テストパターンの生成に失敗: %w", err)
	}

	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.generateFrames(frame, c.stopCh)

	c.running = true
	return nil
}

// Stop はテストパターンの生成を停止する
func (c *virtualCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	close(c.stopCh)
	c.wg.Wait()
	c.running = false
	c.events.OnCameraClosed(c.deviceName)
	return nil
}

// SwitchCamera は定義順で次の仮想デバイスへ切り替え、同期的に完了を報告する
func (c *virtualCapturer) SwitchCamera(done func(isFront bool), fail func(message string)) {
	c.mu.Lock()

	names := c.enumerator.DeviceNames()
	current := -1
	for i, name := range names {
		if name == c.deviceName {
			current = i
			break
		}
	}

	if len(names) < 2 || current == -1 {
		c.mu.Unlock()
		fail("切り替え先のカメラがありません")
		return
	}

	next := names[(current+1)%len(names)]
	c.deviceName = next
	c.mu.Unlock()

	isFront, err := c.enumerator.IsFrontFacing(next)
	if err != nil {
		fail(fmt.Sprintf("カメラの向きを照会できません: %v", err))
		return
	}
	done(isFront)
}

// FrameChannel はJPEGフレームのチャンネルを返す
func (c *virtualCapturer) FrameChannel() <-chan []byte {
	return c.frameChan
}

// DeviceName は現在のデバイス名を返す
func (c *virtualCapturer) DeviceName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceName
}

// generateFrames は設定されたフレームレートで同じフレームを配信し続ける
func (c *virtualCapturer) generateFrames(frame []byte, stopCh chan struct{}) {
	defer c.wg.Done()

	fps := c.settings.FPS
	if fps <= 0 {
		fps = 1
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// 消費者がいない場合はフレームを破棄する
			select {
			case c.frameChan <- frame:
			default:
			}
		}
	}
}

// testPatternJPEG は単色のテストパターンをJPEGとして生成する
func testPatternJPEG(width, height int) ([]byte, error) {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gray := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, gray)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
