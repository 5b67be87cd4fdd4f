package capture

import (
	"errors"
	"log"
)

// ErrNoCamera は全ての解決段階で利用可能なカメラが見つからなかったことを表す
var ErrNoCamera = errors.New("利用可能なカメラが見つかりません")

// Resolve は制約と実機デバイス一覧を照合してキャプチャラーを生成する
//
// 解決は3段階のフォールバックで行う：
//  1. deviceID が指定されていれば名前の完全一致を探す（facingModeより優先）
//     一致したデバイスの生成に失敗した場合は再試行せず次の段階へ進む
//  2. facingMode（省略時は user）に一致するデバイスを列挙順に探す
//     向きの照会に失敗したデバイスは飛ばして解決を続行する
//  3. まだ生成に失敗していない任意のデバイスのうち最初に生成できたものを返す
//     （向きの照会に失敗しただけのデバイスもここで対象になる）
//
// 戻り値のフロントフラグは、段階1と3ではEnumeratorが報告するそのデバイスの
// 実際の向き、段階2では要求された向きになる
// どの段階でも解決できなかった場合は ErrNoCamera を返す
func Resolve(enumerator Enumerator, deviceID, facingMode string, events EventsHandler) (Capturer, bool, error) {
	deviceNames := enumerator.DeviceNames()
	failedDevices := make(map[string]bool)

	// 段階1: deviceIDが指定されていればfacingModeより優先する
	if deviceID != "" {
		for _, name := range deviceNames {
			if name != deviceID {
				continue
			}
			capturer := enumerator.CreateCapturer(name, events)
			if capturer != nil {
				log.Printf("指定されたカメラの生成に成功しました: %s", name)
				return capturer, reportedFacing(enumerator, name), nil
			}
			log.Printf("指定されたカメラの生成に失敗しました: %s", name)
			failedDevices[name] = true
			break // facingModeにフォールバック
		}
	}

	// 段階2: facingModeで探す（省略時はフロントカメラ）
	wantFront := facingMode == "" || facingMode != string(FacingModeEnvironment)
	for _, name := range deviceNames {
		if failedDevices[name] {
			continue
		}
		isFront, err := enumerator.IsFrontFacing(name)
		if err != nil {
			// バックエンドによっては向きの照会が失敗することがある
			// 照会できないだけのデバイスは段階3の対象として残す
			log.Printf("カメラの向きの確認に失敗しました: %s: %v", name, err)
			continue
		}
		if isFront != wantFront {
			continue
		}
		capturer := enumerator.CreateCapturer(name, events)
		if capturer != nil {
			log.Printf("カメラの生成に成功しました: %s", name)
			return capturer, wantFront, nil
		}
		log.Printf("カメラの生成に失敗しました: %s", name)
		failedDevices[name] = true
	}

	// 段階3: 任意の利用可能なカメラにフォールバックする
	for _, name := range deviceNames {
		if failedDevices[name] {
			continue
		}
		capturer := enumerator.CreateCapturer(name, events)
		if capturer != nil {
			log.Printf("フォールバックカメラの生成に成功しました: %s", name)
			return capturer, reportedFacing(enumerator, name), nil
		}
		log.Printf("フォールバックカメラの生成に失敗しました: %s", name)
		failedDevices[name] = true
		// 次のデバイスへフォールバック
	}

	log.Printf("適切なカメラを特定できませんでした")

	return nil, false, ErrNoCamera
}

// reportedFacing はEnumeratorが報告するデバイスの向きを返す
// 照会に失敗した場合はリアカメラとして扱う
func reportedFacing(enumerator Enumerator, name string) bool {
	isFront, err := enumerator.IsFrontFacing(name)
	if err != nil {
		log.Printf("カメラの向きの確認に失敗しました: %s: %v", name, err)
		return false
	}
	return isFront
}
