package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// RedisDiscoveryRepo хранит журнал открытий в Redis.
// Записи лежат в одном hash (objectID -> JSON), дополнительный hash на
// чанк служит индексом для LoadChunk. TTL не используется: журнал
// открытий — постоянные данные.
type RedisDiscoveryRepo struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDiscoveryRepo создаёт репозиторий открытий поверх Redis.
func NewRedisDiscoveryRepo(addr string, db int) (*RedisDiscoveryRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logging.Info("Подключение к Redis установлено: %s (db %d)", addr, db)
	return &RedisDiscoveryRepo{
		client:    client,
		keyPrefix: "surveyor:",
	}, nil
}

func (r *RedisDiscoveryRepo) mainKey() string {
	return r.keyPrefix + "discoveries"
}

func (r *RedisDiscoveryRepo) chunkKey(coords vec.Vec2) string {
	return fmt.Sprintf("%schunk:%d:%d", r.keyPrefix, coords.X, coords.Y)
}

// Save сохраняет запись об открытии.
func (r *RedisDiscoveryRepo) Save(ctx context.Context, rec DiscoveryRecord) error {
	if rec.ObjectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации открытия: %w", err)
	}

	// HSetNX сохраняет идемпотентность: первая запись побеждает
	pipe := r.client.TxPipeline()
	pipe.HSetNX(ctx, r.mainKey(), rec.ObjectID, data)
	pipe.HSetNX(ctx, r.chunkKey(rec.Chunk), rec.ObjectID, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка сохранения открытия в Redis: %w", err)
	}
	return nil
}

// Load загружает запись по идентичности объекта.
func (r *RedisDiscoveryRepo) Load(ctx context.Context, objectID string) (DiscoveryRecord, bool, error) {
	if objectID == "" {
		return DiscoveryRecord{}, false, fmt.Errorf("пустая идентичность объекта")
	}

	data, err := r.client.HGet(ctx, r.mainKey(), objectID).Result()
	if err == redis.Nil {
		return DiscoveryRecord{}, false, nil
	} else if err != nil {
		return DiscoveryRecord{}, false, fmt.Errorf("ошибка чтения открытия: %w", err)
	}

	var rec DiscoveryRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return DiscoveryRecord{}, false, fmt.Errorf("ошибка десериализации открытия: %w", err)
	}
	return rec, true, nil
}

// LoadChunk загружает все открытия чанка через чанковый индекс.
func (r *RedisDiscoveryRepo) LoadChunk(ctx context.Context, coords vec.Vec2) ([]DiscoveryRecord, error) {
	values, err := r.client.HVals(ctx, r.chunkKey(coords)).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения открытий чанка: %w", err)
	}

	result := make([]DiscoveryRecord, 0, len(values))
	for _, data := range values {
		var rec DiscoveryRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			logging.Warn("Повреждённая запись открытия в чанке (%d, %d): %v", coords.X, coords.Y, err)
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// LoadAll возвращает полный журнал открытий.
func (r *RedisDiscoveryRepo) LoadAll(ctx context.Context) ([]DiscoveryRecord, error) {
	values, err := r.client.HVals(ctx, r.mainKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала открытий: %w", err)
	}

	result := make([]DiscoveryRecord, 0, len(values))
	for _, data := range values {
		var rec DiscoveryRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			logging.Warn("Повреждённая запись в журнале открытий: %v", err)
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// BatchSave сохраняет пачку записей одним пайплайном.
func (r *RedisDiscoveryRepo) BatchSave(ctx context.Context, recs []DiscoveryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for i, rec := range recs {
		if rec.ObjectID == "" {
			return fmt.Errorf("пустая идентичность объекта в batch (запись %d)", i)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("ошибка сериализации открытия %s: %w", rec.ObjectID, err)
		}
		pipe.HSetNX(ctx, r.mainKey(), rec.ObjectID, data)
		pipe.HSetNX(ctx, r.chunkKey(rec.Chunk), rec.ObjectID, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка batch-сохранения в Redis: %w", err)
	}
	return nil
}

// Delete удаляет запись об открытии.
func (r *RedisDiscoveryRepo) Delete(ctx context.Context, objectID string) error {
	if objectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	rec, found, err := r.Load(ctx, objectID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("открытие %s не найдено", objectID)
	}

	pipe := r.client.TxPipeline()
	pipe.HDel(ctx, r.mainKey(), objectID)
	pipe.HDel(ctx, r.chunkKey(rec.Chunk), objectID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ошибка удаления открытия: %w", err)
	}
	return nil
}

// Reset стирает весь журнал открытий вместе с чанковыми индексами.
func (r *RedisDiscoveryRepo) Reset(ctx context.Context) error {
	pattern := r.keyPrefix + "*"
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("ошибка сканирования ключей: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("ошибка сброса журнала: %w", err)
	}
	return nil
}

// Count возвращает число записей в журнале.
func (r *RedisDiscoveryRepo) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.mainKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта открытий: %w", err)
	}
	return int(n), nil
}

// Close закрывает соединение с Redis.
func (r *RedisDiscoveryRepo) Close() error {
	return r.client.Close()
}
