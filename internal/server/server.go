package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"kirikae/internal/capture"
	"kirikae/internal/config"
)

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	manager    *capture.Manager
	engine     *gin.Engine
	httpServer *http.Server
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, manager *capture.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		config:  cfg,
		manager: manager,
		engine:  engine,
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// setupRoutes はHTTPルートを設定する
func (s *Server) setupRoutes() {
	handler := newHandler(s.config, s.manager)

	// ヘルスチェックエンドポイント
	s.engine.GET("/health", handler.HealthCheck)

	// APIエンドポイント
	api := s.engine.Group("/api")
	{
		api.GET("/status", handler.GetStatus)
		api.GET("/devices", handler.GetDevices)

		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions", handler.ListSessions)
		api.GET("/sessions/:id", handler.GetSession)
		api.DELETE("/sessions/:id", handler.DeleteSession)

		api.POST("/sessions/:id/start", handler.StartCapture)
		api.POST("/sessions/:id/stop", handler.StopCapture)
		api.POST("/sessions/:id/switch", handler.SwitchCamera)
		api.GET("/sessions/:id/facing-mode", handler.GetFacingMode)
	}

	// WebSocketエンドポイント
	s.engine.GET("/ws/sessions/:id", handler.SessionWebSocket)

	// 操作確認用のページ
	s.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", getIndexHTML())
	})
}

// Start はサーバーを起動する
func (s *Server) Start(ctx context.Context) error {
	// ルートを設定
	s.setupRoutes()

	// シャットダウン用のチャンネル
	shutdownCh := make(chan error, 1)

	// サーバーを別ゴルーチンで起動
	go func() {
		log.Printf("HTTPサーバーを起動しています: %s", s.config.ServerAddress())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			shutdownCh <- fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
	}()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// コンテキストかシグナルを待つ
	select {
	case <-ctx.Done():
		log.Println("コンテキストがキャンセルされました")
	case sig := <-sigCh:
		log.Printf("シグナルを受信しました: %v", sig)
	case err := <-shutdownCh:
		return err
	}

	// グレースフルシャットダウン
	return s.Shutdown()
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// キャプチャ中のセッションもすべて停止する
func (s *Server) Shutdown() error {
	log.Println("サーバーをシャットダウンしています...")

	// 5秒のタイムアウトを設定
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
	}

	if err := s.manager.Shutdown(); err != nil {
		return fmt.Errorf("セッションの停止に失敗: %w", err)
	}

	log.Println("サーバーが正常にシャットダウンされました")
	return nil
}
