package main

import (
	"context"
	"log"
	"os"

	"kirikae/internal/camera"
	"kirikae/internal/capture"
	"kirikae/internal/config"
	"kirikae/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// バックエンドの列挙器を作成
	factory := camera.NewEnumeratorFactory()
	enumerator, err := factory.Create(camera.Backend(cfg.Capture.Backend), camera.Settings{
		Width:  cfg.Capture.DefaultWidth,
		Height: cfg.Capture.DefaultHeight,
		FPS:    cfg.Capture.DefaultFPS,
	})
	if err != nil {
		log.Fatalf("バックエンドの作成に失敗しました: %v", err)
	}

	// セッションマネージャーを作成
	manager := capture.NewManager(enumerator, capture.Constraints{
		Width:      cfg.Capture.DefaultWidth,
		Height:     cfg.Capture.DefaultHeight,
		FrameRate:  cfg.Capture.DefaultFPS,
		DeviceID:   cfg.Capture.DeviceID,
		FacingMode: cfg.Capture.FacingMode,
	})

	// サーバーを作成
	srv := server.New(cfg, manager)

	// コンテキストを作成
	ctx := context.Background()

	// サーバーを起動
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
		os.Exit(1)
	}
}
