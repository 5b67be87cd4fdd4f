// Package capture カメラデバイスの選択とフェイシングモード切り替えを担う
//
// # 責務
// - 制約（deviceId / facingMode）と実機デバイス一覧の照合によるカメラ選択
// - 3段階フォールバックによるキャプチャラーの生成
// - キャプチャセッションのライフサイクル管理（開始・停止・切り替え）
// - フェイシングモード状態の一貫性維持（停止中の切り替え要求の保留と再適用）
// - 複数セッションの統合管理
//
// # 使い分け
// このパッケージは以下の場合に使用する：
// - 呼び出し側の制約から適切なカメラを自動選択したい
// - フロント/リアカメラの切り替えを開始・停止をまたいで一貫させたい
// - 3台以上のカメラを持つ環境で目的のフェイシングモードまで巡回切り替えしたい
//
// # 仕様
// - Device Resolver: deviceId優先 → facingMode一致 → 任意デバイスの3段階解決
// - Capture Controller: 状態管理と非同期切り替えプロトコルの駆動
// - 巡回リトライ: デバイス数を上限とした有界の切り替えループ（再帰は使わない）
// - Enumerator / Capturer は外部コラボレーターとしてインターフェースで受け取る
// - コラボレーターの失敗は全てこの境界で吸収し、クラッシュさせない
// - SwitchCamera の呼び出し1回につきコールバックは必ず1回だけ発火する
package capture
