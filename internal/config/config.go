package config

import (
	"fmt"
	"os"
	"time"
)

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// CaptureConfig はキャプチャ関連の設定
type CaptureConfig struct {
	// デバイス列挙バックエンド（v4l2 / mediadevices / virtual）
	Backend string `yaml:"backend"`

	// 制約の省略時に使うデフォルト値
	DefaultFPS    int `yaml:"default_fps"`    // フレームレート (fps)
	DefaultWidth  int `yaml:"default_width"`  // 画像幅
	DefaultHeight int `yaml:"default_height"` // 画像高さ

	// 既定の制約（省略可）
	DeviceID   string `yaml:"device_id"`   // 明示的なデバイス指定
	FacingMode string `yaml:"facing_mode"` // 希望するフェイシングモード
}

// Load は設定を読み込む
// 現在は環境変数とデフォルト値によるシンプルな実装
func Load() (*Config, error) {
	// デフォルト設定を作成
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 8080),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Capture: CaptureConfig{
			Backend:       getEnvOrDefault("CAPTURE_BACKEND", "v4l2"),
			DefaultFPS:    getEnvAsIntOrDefault("CAPTURE_FPS", 30),
			DefaultWidth:  getEnvAsIntOrDefault("CAPTURE_WIDTH", 1280),
			DefaultHeight: getEnvAsIntOrDefault("CAPTURE_HEIGHT", 720),
			DeviceID:      getEnvOrDefault("CAPTURE_DEVICE_ID", ""),
			FacingMode:    getEnvOrDefault("CAPTURE_FACING_MODE", ""),
		},
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	// キャプチャ設定の検証
	switch c.Capture.Backend {
	case "v4l2", "mediadevices", "virtual":
	default:
		return fmt.Errorf("無効なバックエンド: %s", c.Capture.Backend)
	}

	if c.Capture.DefaultFPS <= 0 || c.Capture.DefaultFPS > 60 {
		return fmt.Errorf("無効なFPS値: %d", c.Capture.DefaultFPS)
	}

	if c.Capture.DefaultWidth <= 0 || c.Capture.DefaultWidth > 4096 {
		return fmt.Errorf("無効な幅: %d", c.Capture.DefaultWidth)
	}

	if c.Capture.DefaultHeight <= 0 || c.Capture.DefaultHeight > 4096 {
		return fmt.Errorf("無効な高さ: %d", c.Capture.DefaultHeight)
	}

	if c.Capture.FacingMode != "" && c.Capture.FacingMode != "user" && c.Capture.FacingMode != "environment" {
		return fmt.Errorf("無効なフェイシングモード: %s", c.Capture.FacingMode)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
