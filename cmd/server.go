// Package main はKirikaeサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"kirikae/internal/camera"
	"kirikae/internal/capture"
	"kirikae/internal/config"
	"kirikae/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host    = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port    = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		backend = flag.String("backend", "", "列挙バックエンド: v4l2 / mediadevices / virtual")
		help    = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Kirikae")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *backend != "" {
		cfg.Capture.Backend = *backend
		if err := cfg.Validate(); err != nil {
			log.Fatalf("設定の検証に失敗しました: %v", err)
		}
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
	log.Printf("Kirikae サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}
}
