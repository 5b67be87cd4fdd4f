package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"kirikae/internal/capture"
	"kirikae/internal/config"
)

// testConfig はテスト用の設定を作成する
func testConfig(port int) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Capture: config.CaptureConfig{
			Backend:       "virtual",
			DefaultFPS:    15,
			DefaultWidth:  1280,
			DefaultHeight: 720,
		},
	}
}

// testManager はフロント/リアの2台構成のモックでマネージャーを作成する
func testManager() *capture.Manager {
	enumerator := capture.NewMockEnumerator(
		capture.MockDevice{Name: "front0", FrontFacing: true},
		capture.MockDevice{Name: "back0", FrontFacing: false},
	)
	return capture.NewManager(enumerator, capture.Constraints{
		Width:     1280,
		Height:    720,
		FrameRate: 15,
	})
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv := New(testConfig(8091), testManager())

	// テスト用のコンテキスト（タイムアウト付き）
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	// エラーチャンネルから結果を受信
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

// TestServerEndpoints はサーバーのエンドポイントをテストする
func TestServerEndpoints(t *testing.T) {
	cfg := testConfig(8092)
	srv := New(cfg, testManager())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = srv.Start(ctx)
	}()

	// サーバーが起動するまで待つ
	time.Sleep(500 * time.Millisecond)

	baseURL := fmt.Sprintf("http://%s", cfg.ServerAddress())

	testCases := []struct {
		name           string
		endpoint       string
		expectedStatus int
	}{
		{"ルートエンドポイント", "/", http.StatusOK},
		{"ヘルスチェックエンドポイント", "/health", http.StatusOK},
		{"ステータスエンドポイント", "/api/status", http.StatusOK},
		{"デバイス一覧エンドポイント", "/api/devices", http.StatusOK},
		{"セッション一覧エンドポイント", "/api/sessions", http.StatusOK},
		{"存在しないセッション", "/api/sessions/unknown", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(baseURL + tc.endpoint)
			if err != nil {
				t.Fatalf("HTTPリクエストでエラーが発生しました: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d",
					resp.StatusCode, tc.expectedStatus)
			}
		})
	}
}

// TestSessionLifecycle はセッションの作成から削除までの一連の操作をテストする
func TestSessionLifecycle(t *testing.T) {
	cfg := testConfig(8093)
	srv := New(cfg, testManager())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = srv.Start(ctx)
	}()

	time.Sleep(500 * time.Millisecond)

	baseURL := fmt.Sprintf("http://%s", cfg.ServerAddress())
	client := &http.Client{Timeout: 5 * time.Second}

	// セッションを作成
	body := bytes.NewBufferString(`{"facingMode": "user"}`)
	resp, err := client.Post(baseURL+"/api/sessions", "application/json", body)
	if err != nil {
		t.Fatalf("セッション作成でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}

	if session.ID == "" {
		t.Fatal("セッションIDが設定されていません")
	}
	if session.FacingMode != "user" {
		t.Errorf("予期しないフェイシングモード: got %s, want user", session.FacingMode)
	}
	// 制約はデフォルト値で補完される
	if session.Width != 1280 || session.Height != 720 {
		t.Errorf("予期しない解像度: %dx%d", session.Width, session.Height)
	}

	sessionURL := baseURL + "/api/sessions/" + session.ID

	// キャプチャを開始
	resp, err = client.Post(sessionURL+"/start", "application/json", nil)
	if err != nil {
		t.Fatalf("キャプチャ開始でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// カメラを切り替え（front0 -> back0）
	resp, err = client.Post(sessionURL+"/switch", "application/json", nil)
	if err != nil {
		t.Fatalf("カメラ切り替えでエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	var switchResult SwitchResponse
	if err := json.NewDecoder(resp.Body).Decode(&switchResult); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if switchResult.FacingMode != "environment" {
		t.Errorf("予期しないフェイシングモード: got %s, want environment", switchResult.FacingMode)
	}

	// 現在のフェイシングモードを確認
	resp, err = client.Get(sessionURL + "/facing-mode")
	if err != nil {
		t.Fatalf("フェイシングモード取得でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	var facing FacingModeResponse
	if err := json.NewDecoder(resp.Body).Decode(&facing); err != nil {
		t.Fatalf("レスポンスのデコードに失敗: %v", err)
	}
	if facing.FacingMode != "environment" {
		t.Errorf("予期しないフェイシングモード: got %s, want environment", facing.FacingMode)
	}
	if !facing.IsCapturing {
		t.Error("キャプチャ中であることを期待")
	}

	// キャプチャを停止
	resp, err = client.Post(sessionURL+"/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("キャプチャ停止でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// セッションを削除
	req, err := http.NewRequest(http.MethodDelete, sessionURL, nil)
	if err != nil {
		t.Fatalf("リクエストの作成に失敗: %v", err)
	}
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("セッション削除でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 削除後の取得は404
	resp, err = client.Get(sessionURL)
	if err != nil {
		t.Fatalf("セッション取得でエラーが発生しました: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("予期しないステータスコード: got %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
