package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
)

// Ключи BadgerDB
var (
	keySeed      = []byte("universe:seed")
	keySnapshot  = []byte("discoveries:snapshot")
	keyCameraPos = []byte("universe:camera")
)

// UniverseStore — локальное персистентное хранилище вселенной поверх
// BadgerDB. Хранит сид (сами чанки не сохраняются — они воспроизводятся
// генерацией), zstd-сжатый снапшот журнала открытий и позицию камеры.
type UniverseStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// CameraState — сохраняемая позиция камеры обзора.
type CameraState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewUniverseStore открывает хранилище вселенной в каталоге dataPath.
func NewUniverseStore(dataPath string) (*UniverseStore, error) {
	dbPath := filepath.Join(dataPath, "universe")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-энкодер: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-декодер: %w", err)
	}

	return &UniverseStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close закрывает хранилище.
func (us *UniverseStore) Close() error {
	us.mutex.Lock()
	defer us.mutex.Unlock()

	if !us.isReady {
		return nil
	}
	us.isReady = false
	us.encoder.Close()
	us.decoder.Close()
	return us.db.Close()
}

// SaveSeed сохраняет сид вселенной.
func (us *UniverseStore) SaveSeed(seed uint32) error {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, seed)

	err := us.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keySeed, buf)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения сида: %w", err)
	}
	return nil
}

// LoadSeed загружает сид вселенной.
// Возвращает false вторым значением, если вселенная ещё не создавалась.
func (us *UniverseStore) LoadSeed() (uint32, bool, error) {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return 0, false, fmt.Errorf("хранилище не готово")
	}

	var seed uint32
	err := us.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySeed)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("повреждённая запись сида: %d байт", len(val))
			}
			seed = binary.LittleEndian.Uint32(val)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("ошибка загрузки сида: %w", err)
	}
	return seed, true, nil
}

// SaveDiscoverySnapshot сохраняет снапшот журнала открытий.
// Журнал сериализуется в JSON и сжимается zstd: типовые журналы из
// тысяч записей с повторяющимися префиксами идентичностей сжимаются
// на порядок.
func (us *UniverseStore) SaveDiscoverySnapshot(recs []DiscoveryRecord) error {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снапшота: %w", err)
	}
	compressed := us.encoder.EncodeAll(raw, nil)

	err = us.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keySnapshot, compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения снапшота: %w", err)
	}

	logging.Debug("Снапшот открытий сохранён: %d записей, %d -> %d байт",
		len(recs), len(raw), len(compressed))
	return nil
}

// LoadDiscoverySnapshot загружает снапшот журнала открытий.
// Возвращает пустой список, если снапшота ещё нет.
func (us *UniverseStore) LoadDiscoverySnapshot() ([]DiscoveryRecord, error) {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var compressed []byte
	err := us.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySnapshot)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return []DiscoveryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снапшота: %w", err)
	}

	raw, err := us.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снапшота: %w", err)
	}

	var recs []DiscoveryRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снапшота: %w", err)
	}
	return recs, nil
}

// SaveCamera сохраняет позицию камеры обзора.
func (us *UniverseStore) SaveCamera(state CameraState) error {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации камеры: %w", err)
	}

	err = us.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyCameraPos, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения камеры: %w", err)
	}
	return nil
}

// LoadCamera загружает позицию камеры обзора.
func (us *UniverseStore) LoadCamera() (CameraState, bool, error) {
	us.mutex.RLock()
	defer us.mutex.RUnlock()

	if !us.isReady {
		return CameraState{}, false, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := us.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyCameraPos)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return CameraState{}, false, nil
	}
	if err != nil {
		return CameraState{}, false, fmt.Errorf("ошибка загрузки камеры: %w", err)
	}

	var state CameraState
	if err := json.Unmarshal(data, &state); err != nil {
		return CameraState{}, false, fmt.Errorf("ошибка десериализации камеры: %w", err)
	}
	return state, true, nil
}

// Wipe стирает всё содержимое хранилища (для смены сида вселенной).
func (us *UniverseStore) Wipe() error {
	us.mutex.Lock()
	defer us.mutex.Unlock()

	if !us.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := us.db.DropAll(); err != nil {
		return fmt.Errorf("ошибка очистки хранилища: %w", err)
	}
	return nil
}
