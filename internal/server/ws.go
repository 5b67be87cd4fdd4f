package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"kirikae/internal/capture"
)

// upgrader はWebSocketへのアップグレード設定
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 操作確認用ページからの接続を想定し、オリジンは検証しない
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCommand はクライアントから受信するコマンド
type wsCommand struct {
	Action string `json:"action"`
}

// wsEvent はクライアントへ送信するイベント
type wsEvent struct {
	Type        string    `json:"type"`
	FacingMode  string    `json:"facingMode,omitempty"`
	IsCapturing bool      `json:"isCapturing"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// wsConn は書き込みを直列化したWebSocket接続
// 切り替え完了の通知は別ゴルーチンから届くため排他が必要
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeEvent(event wsEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	event.Timestamp = time.Now()
	return w.conn.WriteJSON(event)
}

// SessionWebSocket はWebSocketでのセッション操作エンドポイントの実装
//
// 接続直後に現在の状態を送信し、以降はコマンドを受け付ける
//   - {"action": "switch"}: カメラを切り替え、完了時にswitchResultを送信
//   - {"action": "start"}:  キャプチャを開始
//   - {"action": "stop"}:   キャプチャを停止
func (h *Handler) SessionWebSocket(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocketへのアップグレードに失敗: %v", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ws := &wsConn{conn: conn}
	controller := session.Controller

	// 接続直後に現在の状態を通知する
	if err := ws.writeEvent(stateEvent(controller)); err != nil {
		return
	}

	for {
		var command wsCommand
		if err := conn.ReadJSON(&command); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket接続でエラーが発生: %v", err)
			}
			return
		}

		switch command.Action {
		case "switch":
			controller.SwitchCamera(func(mode capture.FacingMode) {
				_ = ws.writeEvent(wsEvent{
					Type:        "switchResult",
					FacingMode:  string(mode),
					IsCapturing: controller.IsCapturing(),
				})
			})

		case "start":
			if err := controller.StartCapture(); err != nil {
				_ = ws.writeEvent(errorEvent(err.Error()))
				continue
			}
			_ = ws.writeEvent(stateEvent(controller))

		case "stop":
			if err := controller.StopCapture(); err != nil {
				_ = ws.writeEvent(errorEvent(err.Error()))
				continue
			}
			_ = ws.writeEvent(stateEvent(controller))

		default:
			_ = ws.writeEvent(errorEvent("未知のアクション: " + command.Action))
		}
	}
}

// stateEvent は現在の状態イベントを作成する
func stateEvent(controller *capture.Controller) wsEvent {
	return wsEvent{
		Type:        "state",
		FacingMode:  string(controller.FacingMode()),
		IsCapturing: controller.IsCapturing(),
	}
}

// errorEvent はエラーイベントを作成する
func errorEvent(message string) wsEvent {
	return wsEvent{
		Type:    "error",
		Message: message,
	}
}
