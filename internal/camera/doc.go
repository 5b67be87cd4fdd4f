// Package camera カメラデバイスの列挙とキャプチャを担う
//
// # 責務
// - カメラデバイスの列挙と向き（フロント/リア）の照会
// - デバイス名からのキャプチャラー生成
// - V4L2デバイスからのリアルタイム画像取得
// - ハードウェアレベルのカメラ切り替え
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - ホスト上のカメラデバイスを列挙したい
// - フェイシングモードに基づいてデバイスを選択したい
// - V4L2デバイスから画像をストリーミングしたい
// - 実機なしで動作確認したい（virtualバックエンド）
//
// # 仕様
// - V4L2 Enumerator: /dev/video*の検出・実名取得・向き判定
// - MediaDevices Enumerator: pion/mediadevicesのドライバー経由の列挙
// - Virtual Enumerator: テストパターンを配信する仮想デバイス
// - V4L2 Capturer: ffmpeg経由での画像キャプチャと切り替え
// - Enumerator Factory: 設定値によるバックエンドの選択
// - Thread-safe な操作をサポート
//
// # 前提要件（v4l2バックエンド）
//   - v4l-utils: カメラ名の取得とデバイス制御に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//     Red Hat/Fedora: sudo dnf install v4l-utils
//   - ffmpeg: 画像キャプチャとストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
//     Red Hat/Fedora: sudo dnf install ffmpeg
//   - videoグループへの参加: デバイスアクセス権限
//     sudo usermod -a -G video $USER
package camera
