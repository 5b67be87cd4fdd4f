package capture

import (
	"fmt"
	"log"
	"sync"
)

// Controller はキャプチャセッションのライフサイクルとフェイシングモードの一貫性を管理する
//
// 状態フィールドは全てこのコントローラーが排他的に所有し、
// 変更はコントローラーのメソッド経由でのみ行う
// isFrontFacing が変更されるのは、ハードウェア切り替えの完了確認後か、
// 停止中の同期的なトグルのどちらかに限られる（投機的には変更しない）
type Controller struct {
	enumerator  Enumerator
	constraints Constraints

	// EventsHandlerはデバイス名に依存しないログ出力のみのため、キャッシュして使い回す
	events EventsHandler

	mu sync.RWMutex

	isFrontFacing bool
	isCapturing   bool

	// 停止中に記録されたフェイシングモードのスナップショット
	// 次回の開始時に不一致があれば切り替えで再適用し、無条件にクリアする
	pendingFacingModeOnStop FacingMode

	// 最初の開始時に解決され、以降のセッションで再利用される
	capturer Capturer

	// 切り替え要求は同時に1つまで（単一スロットガード）
	switching bool
}

// NewController は新しいControllerを作成する
// コントローラーはキャプチャセッション要求ごとに1つ作成される
func NewController(enumerator Enumerator, constraints Constraints) *Controller {
	return &Controller{
		enumerator:  enumerator,
		constraints: constraints,
		events:      NewLogEventsHandler(),
	}
}

// StartCapture はキャプチャを開始する
//
// 最初の呼び出しで制約からキャプチャラーを解決する
// 解決できない場合は ErrNoCamera を包んだエラーを返す
// 停止中に切り替え要求があった場合は、開始後に自動で再適用の切り替えを起動する
// （結果はログに出力するのみで、呼び出し側には通知しない）
func (c *Controller) StartCapture() error {
	c.mu.Lock()

	if c.capturer == nil {
		capturer, isFront, err := Resolve(c.enumerator, c.constraints.DeviceID, c.constraints.FacingMode, c.events)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("キャプチャラーの解決に失敗: %w", err)
		}
		c.capturer = capturer
		c.isFrontFacing = isFront
	}

	if err := c.capturer.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("キャプチャの開始に失敗: %w", err)
	}

	c.isCapturing = true

	// 停止中に要求されたフェイシングモードとの不一致を確認する
	pending := c.pendingFacingModeOnStop
	c.pendingFacingModeOnStop = ""
	current := facingModeOf(c.isFrontFacing)
	c.mu.Unlock()

	if pending != "" && pending != current {
		c.SwitchCamera(func(mode FacingMode) {
			log.Printf("フェイシングモードを復元しました: %s", mode)
		})
	}

	return nil
}

// StopCapture はキャプチャを停止する
//
// 停止時点のフェイシングモードを記録しておき、次回開始時の再適用に備える
// （停止中はカメラセッションが破棄されるため、切り替え要求はハードウェアに届かない）
func (c *Controller) StopCapture() error {
	c.mu.Lock()
	c.isCapturing = false
	c.pendingFacingModeOnStop = facingModeOf(c.isFrontFacing)
	capturer := c.capturer
	c.mu.Unlock()

	if capturer == nil {
		return nil
	}

	if err := capturer.Stop(); err != nil {
		return fmt.Errorf("キャプチャの停止に失敗: %w", err)
	}

	return nil
}

// SwitchCamera はフェイシングモードの切り替えを要求する
//
// handler は成功・失敗にかかわらず必ず1回だけ呼ばれる
//   - 停止中: 状態のみを同期的にトグルし、ハードウェアには触れない
//   - デバイスが0〜1台: 切り替え先がないため現在のモードをそのまま返す
//   - ちょうど2台: 1回の切り替え要求を発行し、ハードウェアが報告した向きを採用する
//   - 3台以上: 巡回リトライで目的の向きのカメラを探す
//
// 既に切り替えが進行中の場合は、現在のモードを即座に返す
func (c *Controller) SwitchCamera(handler SwitchHandler) {
	c.mu.Lock()

	// 停止中は状態だけを反転させ、次回開始時に反映する
	if !c.isCapturing {
		c.isFrontFacing = !c.isFrontFacing
		mode := facingModeOf(c.isFrontFacing)
		c.mu.Unlock()
		handler(mode)
		return
	}

	capturer := c.capturer
	if capturer == nil {
		mode := facingModeOf(c.isFrontFacing)
		c.mu.Unlock()
		handler(mode)
		return
	}

	deviceCount := len(c.enumerator.DeviceNames())

	// 切り替え先がない
	if deviceCount < 2 {
		mode := facingModeOf(c.isFrontFacing)
		c.mu.Unlock()
		handler(mode)
		return
	}

	if c.switching {
		mode := facingModeOf(c.isFrontFacing)
		c.mu.Unlock()
		handler(mode)
		return
	}
	c.switching = true

	// 通常のケース：2台ならば1回の切り替えで済む
	if deviceCount == 2 {
		c.mu.Unlock()
		capturer.SwitchCamera(
			func(isFront bool) {
				c.mu.Lock()
				c.isFrontFacing = isFront
				c.switching = false
				mode := facingModeOf(c.isFrontFacing)
				c.mu.Unlock()
				handler(mode)
			},
			func(message string) {
				log.Printf("カメラの切り替えに失敗しました: %s", message)
				c.mu.Lock()
				c.switching = false
				mode := facingModeOf(c.isFrontFacing)
				c.mu.Unlock()
				handler(mode)
			},
		)
		return
	}

	// 3台以上の場合は巡回リトライで目的の向きのカメラを探す
	desired := !c.isFrontFacing
	c.mu.Unlock()

	cycle := &cyclingSwitch{
		controller:     c,
		capturer:       capturer,
		desiredFront:   desired,
		triesRemaining: deviceCount,
		handler:        handler,
	}
	cycle.attempt()
}

// FacingMode は現在のフェイシングモードを返す
// キャプチャラーが未解決でも、最後に要求された状態を返す
func (c *Controller) FacingMode() FacingMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return facingModeOf(c.isFrontFacing)
}

// IsCapturing はキャプチャ中かどうかを返す
func (c *Controller) IsCapturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCapturing
}

// Constraints はこのセッションの制約を返す
func (c *Controller) Constraints() Constraints {
	return c.constraints
}

// cyclingSwitch は3台以上のカメラを巡回する切り替えの状態機械
//
// プラットフォームはカメラを順序保証のない巡回リストとして提示するため、
// 「次のカメラへ切り替える」操作を繰り返して目的の向きを探すしかない
// 試行回数はデバイス数を上限として必ず停止する
type cyclingSwitch struct {
	controller     *Controller
	capturer       Capturer
	desiredFront   bool
	triesRemaining int
	handler        SwitchHandler
}

// attempt は切り替え要求を1回発行する
// 前の要求が完了するまで次の要求は発行しない
func (s *cyclingSwitch) attempt() {
	s.capturer.SwitchCamera(s.onDone, s.onError)
}

// onDone は切り替え完了の報告を処理する
func (s *cyclingSwitch) onDone(isFront bool) {
	if isFront == s.desiredFront {
		// 目的の向きに到達した
		c := s.controller
		c.mu.Lock()
		c.isFrontFacing = s.desiredFront
		c.switching = false
		mode := facingModeOf(c.isFrontFacing)
		c.mu.Unlock()
		s.handler(mode)
		return
	}

	s.triesRemaining--
	if s.triesRemaining > 0 {
		s.attempt()
		return
	}

	// 試行回数を使い切った：目的の向きのカメラは見つからなかった
	log.Printf("目的のフェイシングモードのカメラが見つかりませんでした")
	c := s.controller
	c.mu.Lock()
	c.switching = false
	mode := facingModeOf(c.isFrontFacing)
	c.mu.Unlock()
	s.handler(mode)
}

// onError は切り替え失敗の報告を処理する
// リトライはせず、現在のモードをそのまま報告して終了する
func (s *cyclingSwitch) onError(message string) {
	log.Printf("カメラの切り替えに失敗しました: %s", message)
	c := s.controller
	c.mu.Lock()
	c.switching = false
	mode := facingModeOf(c.isFrontFacing)
	c.mu.Unlock()
	s.handler(mode)
}
