package camera

import (
	"fmt"

	"kirikae/internal/capture"
)

// Backend はデバイス列挙バックエンドの種別
type Backend string

const (
	BackendV4L2         Backend = "v4l2"         // v4l2-ctlとffmpegによる直接アクセス
	BackendMediaDevices Backend = "mediadevices" // pion/mediadevicesのドライバー経由
	BackendVirtual      Backend = "virtual"      // 実機なしの仮想デバイス
)

// EnumeratorCreator はバックエンド作成関数の型
type EnumeratorCreator func(settings Settings) capture.Enumerator

// EnumeratorFactory はバックエンドの登録と作成を担うファクトリー
type EnumeratorFactory struct {
	creators map[Backend]EnumeratorCreator
}

// NewEnumeratorFactory は標準バックエンドを登録したファクトリーを作成する
func NewEnumeratorFactory() *EnumeratorFactory {
	factory := &EnumeratorFactory{
		creators: make(map[Backend]EnumeratorCreator),
	}

	factory.Register(BackendV4L2, func(settings Settings) capture.Enumerator {
		return NewV4L2Enumerator(settings)
	})
	factory.Register(BackendMediaDevices, func(settings Settings) capture.Enumerator {
		return NewMediaDevicesEnumerator(settings)
	})
	factory.Register(BackendVirtual, func(settings Settings) capture.Enumerator {
		return NewVirtualEnumerator(settings)
	})

	return factory
}

// Register はバックエンド作成関数を登録する
func (f *EnumeratorFactory) Register(backend Backend, creator EnumeratorCreator) {
	f.creators[backend] = creator
}

// Create は指定バックエンドの列挙器を作成する
func (f *EnumeratorFactory) Create(backend Backend, settings Settings) (capture.Enumerator, error) {
	creator, exists := f.creators[backend]
	if !exists {
		return nil, fmt.Errorf("サポートされていないバックエンド: %s", backend)
	}
	return creator(settings), nil
}

// SupportedBackends は登録済みのバックエンド一覧を返す
func (f *EnumeratorFactory) SupportedBackends() []Backend {
	backends := make([]Backend, 0, len(f.creators))
	for backend := range f.creators {
		backends = append(backends, backend)
	}
	return backends
}
