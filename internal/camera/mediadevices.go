package camera

import (
	"fmt"
	"strings"

	"github.com/pion/mediadevices"

	// インポートによりV4L2ドライバーが登録される
	pioncamera "github.com/pion/mediadevices/pkg/driver/camera"

	"kirikae/internal/capture"
)

// MediaDevicesEnumerator はpion/mediadevicesのドライバー登録を通じて
// デバイスを列挙するバックエンド
// デバイス名にはドライバーのラベルを使用し、実際のキャプチャは
// ラベルから復元したデバイスパスでV4L2キャプチャラーに委譲する
type MediaDevicesEnumerator struct {
	settings Settings
}

// NewMediaDevicesEnumerator はmediadevicesバックエンドを作成する
func NewMediaDevicesEnumerator(settings Settings) *MediaDevicesEnumerator {
	return &MediaDevicesEnumerator{settings: settings}
}

// DeviceNames はビデオ入力デバイスのラベルを列挙順で返す
func (e *MediaDevicesEnumerator) DeviceNames() []string {
	names := make([]string, 0)
	for _, device := range mediadevices.EnumerateDevices() {
		if device.Kind != mediadevices.VideoInput {
			continue
		}
		names = append(names, device.Label)
	}
	return names
}

// IsFrontFacing はラベルのキーワードからカメラの向きを判定する
func (e *MediaDevicesEnumerator) IsFrontFacing(name string) (bool, error) {
	for _, device := range mediadevices.EnumerateDevices() {
		if device.Kind != mediadevices.VideoInput {
			continue
		}
		if device.Label == name {
			return facingFromLabel(device.Label), nil
		}
	}
	return false, fmt.Errorf("デバイスが見つかりません: %s", name)
}

// CreateCapturer はラベルからデバイスパスを復元してキャプチャラーを生成する
func (e *MediaDevicesEnumerator) CreateCapturer(name string, events capture.EventsHandler) capture.Capturer {
	devicePath := devicePathFromLabel(name)
	if devicePath == "" {
		return nil
	}
	if !isDeviceAvailable(devicePath) {
		return nil
	}
	return NewV4L2Capturer(e, devicePath, e.settings, events)
}

// devicePathFromLabel はドライバーのラベルからV4L2デバイスパスを取り出す
// ラベルは "/dev/v4l/by-path/...;/dev/video0" の形式で、複数の
// パスがセパレーターで連結されている
func devicePathFromLabel(label string) string {
	for _, part := range strings.Split(label, pioncamera.LabelSeparator) {
		if strings.HasPrefix(part, "/dev/video") {
			return part
		}
	}
	// by-pathのみのラベルでも先頭要素がデバイスを指す
	parts := strings.Split(label, pioncamera.LabelSeparator)
	if len(parts) > 0 && strings.HasPrefix(parts[0], "/dev/") {
		return parts[0]
	}
	return ""
}
