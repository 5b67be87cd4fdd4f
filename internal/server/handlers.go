package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kirikae/internal/capture"
	"kirikae/internal/config"
)

// Handler はAPIエンドポイントの実装を集約する
type Handler struct {
	config  *config.Config
	manager *capture.Manager
}

// newHandler は新しいHandlerを作成する
func newHandler(cfg *config.Config, manager *capture.Manager) *Handler {
	return &Handler{
		config:  cfg,
		manager: manager,
	}
}

// レスポンス型

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status    string     `json:"status"`
	Server    ServerInfo `json:"server"`
	Backend   string     `json:"backend"`
	Sessions  int        `json:"sessions"`
	Timestamp time.Time  `json:"timestamp"`
}

// ServerInfo はサーバー情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DeviceInfo は列挙されたデバイスの情報
type DeviceInfo struct {
	Name       string `json:"name"`
	FacingMode string `json:"facingMode,omitempty"`
}

// DevicesResponse はデバイス一覧のレスポンス
type DevicesResponse struct {
	Devices []DeviceInfo `json:"devices"`
}

// SessionRequest はセッション作成リクエスト
type SessionRequest struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  int    `json:"frameRate"`
	DeviceID   string `json:"deviceId"`
	FacingMode string `json:"facingMode"`
}

// SessionResponse はセッション情報のレスポンス
type SessionResponse struct {
	ID          string    `json:"id"`
	FacingMode  string    `json:"facingMode"`
	IsCapturing bool      `json:"isCapturing"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	FrameRate   int       `json:"frameRate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionsResponse はセッション一覧のレスポンス
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// SwitchResponse はカメラ切り替えのレスポンス
type SwitchResponse struct {
	FacingMode string `json:"facingMode"`
}

// FacingModeResponse は現在のフェイシングモードのレスポンス
type FacingModeResponse struct {
	FacingMode  string `json:"facingMode"`
	IsCapturing bool   `json:"isCapturing"`
}

// ErrorResponse はエラーのレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Backend:   h.config.Capture.Backend,
		Sessions:  len(h.manager.Sessions()),
		Timestamp: time.Now(),
	})
}

// GetDevices はデバイス一覧取得エンドポイントの実装
// 向きを照会できないデバイスはfacingModeを省略して返す
func (h *Handler) GetDevices(c *gin.Context) {
	enumerator := h.manager.Enumerator()
	names := enumerator.DeviceNames()

	devices := make([]DeviceInfo, 0, len(names))
	for _, name := range names {
		info := DeviceInfo{Name: name}
		if isFront, err := enumerator.IsFrontFacing(name); err == nil {
			if isFront {
				info.FacingMode = string(capture.FacingModeUser)
			} else {
				info.FacingMode = string(capture.FacingModeEnvironment)
			}
		}
		devices = append(devices, info)
	}

	c.JSON(http.StatusOK, DevicesResponse{Devices: devices})
}

// CreateSession はセッション作成エンドポイントの実装
func (h *Handler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストの形式が不正です",
			Timestamp: time.Now(),
		})
		return
	}

	session := h.manager.CreateSession(capture.Constraints{
		Width:      req.Width,
		Height:     req.Height,
		FrameRate:  req.FrameRate,
		DeviceID:   req.DeviceID,
		FacingMode: req.FacingMode,
	})

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// ListSessions はセッション一覧取得エンドポイントの実装
func (h *Handler) ListSessions(c *gin.Context) {
	sessions := h.manager.Sessions()

	response := SessionsResponse{
		Sessions: make([]SessionResponse, 0, len(sessions)),
	}
	for _, session := range sessions {
		response.Sessions = append(response.Sessions, sessionResponse(session))
	}

	c.JSON(http.StatusOK, response)
}

// GetSession はセッション取得エンドポイントの実装
func (h *Handler) GetSession(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// DeleteSession はセッション削除エンドポイントの実装
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.manager.RemoveSession(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	c.Status(http.StatusNoContent)
}

// StartCapture はキャプチャ開始エンドポイントの実装
func (h *Handler) StartCapture(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	if err := session.Controller.StartCapture(); err != nil {
		status := http.StatusInternalServerError
		code := "start_failed"
		if errors.Is(err, capture.ErrNoCamera) {
			status = http.StatusServiceUnavailable
			code = "no_camera"
		}
		c.JSON(status, ErrorResponse{
			Error:     code,
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// StopCapture はキャプチャ停止エンドポイントの実装
func (h *Handler) StopCapture(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	if err := session.Controller.StopCapture(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "stop_failed",
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session))
}

// SwitchCamera はカメラ切り替えエンドポイントの実装
// 切り替え完了まで待ってから切り替え後のモードを返す
func (h *Handler) SwitchCamera(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	resultCh := make(chan capture.FacingMode, 1)
	session.Controller.SwitchCamera(func(mode capture.FacingMode) {
		resultCh <- mode
	})

	select {
	case mode := <-resultCh:
		c.JSON(http.StatusOK, SwitchResponse{FacingMode: string(mode)})
	case <-c.Request.Context().Done():
		// クライアントが切断された
	}
}

// GetFacingMode は現在のフェイシングモード取得エンドポイントの実装
func (h *Handler) GetFacingMode(c *gin.Context) {
	session, found := h.manager.GetSession(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, sessionNotFound())
		return
	}

	c.JSON(http.StatusOK, FacingModeResponse{
		FacingMode:  string(session.Controller.FacingMode()),
		IsCapturing: session.Controller.IsCapturing(),
	})
}

// ヘルパー関数

// sessionResponse はセッションをレスポンス型に変換する
func sessionResponse(session *capture.Session) SessionResponse {
	constraints := session.Controller.Constraints()
	return SessionResponse{
		ID:          session.ID,
		FacingMode:  string(session.Controller.FacingMode()),
		IsCapturing: session.Controller.IsCapturing(),
		Width:       constraints.Width,
		Height:      constraints.Height,
		FrameRate:   constraints.FrameRate,
		CreatedAt:   session.CreatedAt,
	}
}

// sessionNotFound はセッション未検出のエラーレスポンスを作成する
func sessionNotFound() ErrorResponse {
	return ErrorResponse{
		Error:     "session_not_found",
		Message:   "指定されたセッションが見つかりません",
		Timestamp: time.Now(),
	}
}
