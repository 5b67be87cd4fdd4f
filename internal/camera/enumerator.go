package camera

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"kirikae/internal/capture"
)

// Settings はバックエンドが生成するキャプチャラーの既定設定
type Settings struct {
	Width  int // 画像幅
	Height int // 画像高さ
	FPS    int // フレームレート
}

// V4L2Enumerator はLinux環境でのカメラデバイス列挙を実装する
type V4L2Enumerator struct {
	settings Settings
}

// NewV4L2Enumerator は新しいV4L2Enumeratorを作成する
func NewV4L2Enumerator(settings Settings) *V4L2Enumerator {
	return &V4L2Enumerator{settings: settings}
}

// DeviceNames はシステム内の利用可能なカメラデバイスを列挙順で返す
// 列挙順はデバイス番号の昇順で安定している
func (e *V4L2Enumerator) DeviceNames() []string {
	var devices []string

	// /dev/video* パターンでデバイスを検索
	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return devices
	}

	// デバイス番号でソート
	sort.Slice(matches, func(i, j int) bool {
		numI := extractDeviceNumber(matches[i])
		numJ := extractDeviceNumber(matches[j])
		return numI < numJ
	})

	for _, match := range matches {
		if isV4L2Device(match) && isDeviceAvailable(match) {
			devices = append(devices, match)
		}
	}

	return devices
}

// IsFrontFacing は指定デバイスがフロントカメラかどうかを返す
// v4l2-ctlでカメラ名を取得し、名前からの推定で判定する
// カメラ名が取得できない場合は照会失敗としてエラーを返す
func (e *V4L2Enumerator) IsFrontFacing(name string) (bool, error) {
	label := getV4L2DeviceName(name)
	if label == "" {
		return false, fmt.Errorf("カメラの向きを照会できません: %s", name)
	}
	return facingFromLabel(label), nil
}

// CreateCapturer は指定デバイスのキャプチャラーを生成する
// デバイスが利用できない場合は nil を返す
func (e *V4L2Enumerator) CreateCapturer(name string, events capture.EventsHandler) capture.Capturer {
	if !isDeviceAvailable(name) {
		return nil
	}
	return NewV4L2Capturer(e, name, e.settings, events)
}

// facingFromLabel はカメラ名からフェイシングモードを推定する
//
// モバイル系のUVCカメラはカメラ名に "front" / "rear" を含むことが多い
// どちらとも判定できない場合はフロントカメラとして扱う
// （ノートPCの内蔵カメラは通常ユーザー向きのため）
func facingFromLabel(label string) bool {
	lower := strings.ToLower(label)

	for _, keyword := range []string{"back", "rear", "world", "environment"} {
		if strings.Contains(lower, keyword) {
			return false
		}
	}

	return true
}

// isDeviceAvailable は指定されたデバイスが利用可能かチェックする
func isDeviceAvailable(device string) bool {
	// デバイスファイルの存在確認
	if _, err := os.Stat(device); os.IsNotExist(err) {
		return false
	}

	// デバイスファイルの読み取り権限チェック
	file, err := os.OpenFile(device, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	return true
}

// isV4L2Device はデバイスがV4L2デバイスかチェックする
// 簡易実装：実際にはV4L2のioctl呼び出しで確認する
func isV4L2Device(device string) bool {
	matched, _ := regexp.MatchString(`^/dev/video\d+$`, device)
	return matched
}

// getV4L2DeviceName はv4l2-ctlを使って実際のデバイス名を取得する
func getV4L2DeviceName(device string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := runV4L2Ctl(ctx, "--device", device, "--info")
	if err != nil {
		return ""
	}

	// "Card type" の行からカメラ名を抽出
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Card type") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				cardType := strings.TrimSpace(parts[1])
				if cardType != "" {
					return cardType
				}
			}
		}
	}

	return ""
}

// runV4L2Ctl はv4l2-ctlコマンドを実行して標準出力を返す
func runV4L2Ctl(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("v4l2-ctlの実行に失敗: %w", err)
	}
	return string(output), nil
}

// extractDeviceNumber はデバイスパスから番号を抽出する
func extractDeviceNumber(device string) int {
	// /dev/videoXX から XX を抽出
	re := regexp.MustCompile(`video(\d+)`)
	matches := re.FindStringSubmatch(device)
	if len(matches) < 2 {
		return 0
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}

	return num
}
