package capture

import "log"

// FacingMode はカメラの論理的な向きを表す
type FacingMode string

const (
	// FacingModeUser はフロントカメラ（自分向き）を表す
	FacingModeUser FacingMode = "user"
	// FacingModeEnvironment はリアカメラ（外向き）を表す
	FacingModeEnvironment FacingMode = "environment"
)

// ParseFacingMode は文字列をFacingModeに変換する
// 空文字列や未知の値は user として扱う
func ParseFacingMode(s string) FacingMode {
	if s == string(FacingModeEnvironment) {
		return FacingModeEnvironment
	}
	return FacingModeUser
}

// facingModeOf はフロントフラグをFacingModeに変換する
func facingModeOf(isFront bool) FacingMode {
	if isFront {
		return FacingModeUser
	}
	return FacingModeEnvironment
}

// Constraints は呼び出し側が宣言するキャプチャ制約を表す
type Constraints struct {
	Width      int    // 画像幅
	Height     int    // 画像高さ
	FrameRate  int    // フレームレート
	DeviceID   string // 明示的なデバイス指定（省略可）
	FacingMode string // 希望するフェイシングモード（省略時は user）
}

// Enumerator はカメラデバイスの列挙機能を提供するコラボレーター
//
// デバイス名は列挙順が安定しており、一意であることを前提とする
// （一意性はここでは再検証しない）
type Enumerator interface {
	// DeviceNames は利用可能なデバイス名を列挙順で返す
	DeviceNames() []string

	// IsFrontFacing は指定デバイスがフロントカメラかどうかを返す
	// バックエンドによっては照会自体が失敗することがある
	IsFrontFacing(name string) (bool, error)

	// CreateCapturer は指定デバイスのキャプチャラーを生成する
	// 生成できない場合は nil を返す
	CreateCapturer(name string, events EventsHandler) Capturer
}

// Capturer はアクティブなカメラセッションへのハンドル
type Capturer interface {
	// Start はフレーム取得を開始する
	Start() error

	// Stop はフレーム取得を停止する
	Stop() error

	// SwitchCamera は次のカメラへの切り替えを要求する
	// 完了時は done に切り替え後のフロントフラグが渡され、
	// 失敗時は fail にエラーメッセージが渡される
	// done / fail のどちらかが必ず1回だけ呼ばれる
	SwitchCamera(done func(isFront bool), fail func(message string))
}

// SwitchHandler はSwitchCameraの結果を受け取るコールバック
// 成功・失敗にかかわらず必ず1回呼ばれる
type SwitchHandler func(mode FacingMode)

// EventsHandler はカメラセッションのイベントを受け取るコラボレーター
type EventsHandler interface {
	// OnCameraOpening はデバイスのオープン開始時に呼ばれる
	OnCameraOpening(name string)

	// OnCameraClosed はデバイスのクローズ時に呼ばれる
	OnCameraClosed(name string)

	// OnCameraError はデバイスのエラー発生時に呼ばれる
	OnCameraError(name string, message string)
}

// LogEventsHandler はログ出力のみを行うEventsHandler実装
// デバイス名に依存した処理を持たないため、コントローラーごとに1つをキャッシュして使い回す
type LogEventsHandler struct{}

// NewLogEventsHandler は新しいLogEventsHandlerを作成する
func NewLogEventsHandler() *LogEventsHandler {
	return &LogEventsHandler{}
}

// OnCameraOpening はデバイスのオープン開始をログに出力する
func (h *LogEventsHandler) OnCameraOpening(name string) {
	log.Printf("カメラをオープンしています: %s", name)
}

// OnCameraClosed はデバイスのクローズをログに出力する
func (h *LogEventsHandler) OnCameraClosed(name string) {
	log.Printf("カメラをクローズしました: %s", name)
}

// OnCameraError はデバイスのエラーをログに出力する
func (h *LogEventsHandler) OnCameraError(name string, message string) {
	log.Printf("カメラでエラーが発生しました: %s: %s", name, message)
}
