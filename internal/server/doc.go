// Package server は、HTTPサーバーとWebSocket通信を管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// WebSocket接続の管理、操作確認用ページの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - キャプチャセッションのREST API
//   - WebSocket経由でのカメラ切り替え操作と完了通知
//   - 操作確認用ページ（HTML）の配信
//   - グレースフルシャットダウンとセッションの停止
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - WebSocketはgorilla/websocketを使用
//   - カメラ切り替えのREST APIは完了報告を待ってから応答する
//   - 複数クライアントの同時接続をサポート
package server
