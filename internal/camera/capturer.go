package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"kirikae/internal/capture"
)

// V4L2Capturer はffmpegを使ってV4L2デバイスからフレームを取得するキャプチャラー
//
// SwitchCamera は列挙順で次のデバイスへ巡回する
// （プラットフォームから見るとカメラは向きの順序保証がない巡回リスト）
type V4L2Capturer struct {
	enumerator capture.Enumerator
	settings   Settings
	events     capture.EventsHandler

	mu         sync.Mutex
	devicePath string
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    bool

	frameChan chan []byte
	errorChan chan error
}

// NewV4L2Capturer は新しいV4L2Capturerを作成する
func NewV4L2Capturer(enumerator capture.Enumerator, devicePath string, settings Settings, events capture.EventsHandler) *V4L2Capturer {
	return &V4L2Capturer{
		enumerator: enumerator,
		settings:   settings,
		events:     events,
		devicePath: devicePath,
		frameChan:  make(chan []byte, 10),
		errorChan:  make(chan error, 10),
	}
}

// Start はフレーム取得を開始する
func (c *V4L2Capturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

// Stop はフレーム取得を停止する
func (c *V4L2Capturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	return nil
}

// SwitchCamera は列挙順で次のデバイスへの切り替えを要求する
//
// 完了報告は別ゴルーチンから非同期に届く
// 切り替え先のオープンに失敗した場合は元のデバイスへの復帰を試みたうえで
// fail を呼ぶ（切り替えは行われなかったものとして扱われる）
func (c *V4L2Capturer) SwitchCamera(done func(isFront bool), fail func(message string)) {
	go func() {
		c.mu.Lock()

		names := c.enumerator.DeviceNames()
		current := -1
		for i, name := range names {
			if name == c.devicePath {
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
		previous := c.devicePath
		wasRunning := c.running

		c.stopLocked()
		c.devicePath = next

		if wasRunning {
			if err := c.startLocked(); err != nil {
				// 元のデバイスへの復帰を試みる
				c.devicePath = previous
				if restoreErr := c.startLocked(); restoreErr != nil {
					c.events.OnCameraError(previous, restoreErr.Error())
				}
				c.mu.Unlock()
				fail(fmt.Sprintf("カメラの切り替えに失敗: %v", err))
				return
			}
		}

		c.mu.Unlock()

		isFront, err := c.enumerator.IsFrontFacing(next)
		if err != nil {
			// 向きを照会できないデバイスはリアカメラとして扱う
			isFront = false
		}
		done(isFront)
	}()
}

// FrameChannel はJPEGフレームのチャンネルを返す
func (c *V4L2Capturer) FrameChannel() <-chan []byte {
	return c.frameChan
}

// ErrorChannel はストリーミングエラーのチャンネルを返す
func (c *V4L2Capturer) ErrorChannel() <-chan error {
	return c.errorChan
}

// DevicePath は現在のデバイスパスを返す
func (c *V4L2Capturer) DevicePath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devicePath
}

// startLocked はフレーム取得を開始する（ロック済み前提）
func (c *V4L2Capturer) startLocked() error {
	if c.running {
		return fmt.Errorf("キャプチャラーは既に開始されています: %s", c.devicePath)
	}

	c.events.OnCameraOpening(c.devicePath)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.streamLoop(ctx); err != nil {
		cancel()
		return err
	}

	c.cancel = cancel
	c.running = true
	return nil
}

// stopLocked はフレーム取得を停止する（ロック済み前提）
func (c *V4L2Capturer) stopLocked() {
	if !c.running {
		return
	}

	c.cancel()
	c.wg.Wait()
	c.running = false
	c.events.OnCameraClosed(c.devicePath)
}

// streamLoop はffmpegで連続キャプチャを開始し、JPEGフレームに分割して配信する
func (c *V4L2Capturer) streamLoop(ctx context.Context) error {
	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.settings.Width, c.settings.Height),
		"-r", strconv.Itoa(c.settings.FPS),
		"-i", c.devicePath,
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", "3",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdoutパイプの作成に失敗: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpegの起動に失敗: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			_ = cmd.Wait() // エラーは無視（コンテキストキャンセル時に発生するため）
		}()

		buffer := make([]byte, 1024*1024) // 1MBバッファ
		frameBuffer := bytes.Buffer{}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n, err := stdout.Read(buffer)
			if err != nil {
				if ctx.Err() == nil {
					select {
					case c.errorChan <- fmt.Errorf("フレーム読み取りエラー: %w", err):
					default:
					}
				}
				return
			}

			frameBuffer.Write(buffer[:n])
			c.extractFrames(&frameBuffer)
		}
	}()

	return nil
}

// extractFrames はバッファからJPEGマーカーを探してフレームを切り出す
func (c *V4L2Capturer) extractFrames(frameBuffer *bytes.Buffer) {
	data := frameBuffer.Bytes()
	for {
		// JPEGの開始マーカー（FF D8）を探す
		startIdx := bytes.Index(data, []byte{0xFF, 0xD8})
		if startIdx == -1 {
			return
		}

		// JPEGの終了マーカー（FF D9）を探す
		endIdx := bytes.Index(data[startIdx+2:], []byte{0xFF, 0xD9})
		if endIdx == -1 {
			// 完全なフレームがまだない
			if startIdx > 0 {
				remaining := append([]byte(nil), data[startIdx:]...)
				frameBuffer.Reset()
				frameBuffer.Write(remaining)
			}
			return
		}

		// 完全なJPEGフレームを抽出
		endIdx += startIdx + 2 + 2 // マーカーのサイズを含める
		frame := make([]byte, endIdx-startIdx)
		copy(frame, data[startIdx:endIdx])

		// 消費者がいない場合はフレームを破棄する
		select {
		case c.frameChan <- frame:
		default:
		}

		remaining := append([]byte(nil), data[endIdx:]...)
		frameBuffer.Reset()
		frameBuffer.Write(remaining)
		data = frameBuffer.Bytes()
		if len(data) == 0 {
			return
		}
	}
}
