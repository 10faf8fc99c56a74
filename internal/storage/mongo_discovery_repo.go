package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/logging"
	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// MongoDiscoveryRepo реализует DiscoveryRepo поверх MongoDB.
// Документ на открытие, _id — идентичность объекта; составной индекс
// по координатам чанка обслуживает LoadChunk.
type MongoDiscoveryRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type discoveryDoc struct {
	ObjectID     string    `bson:"_id"`
	ObjectType   string    `bson:"object_type"`
	ChunkX       int       `bson:"chunk_x"`
	ChunkY       int       `bson:"chunk_y"`
	PosX         float64   `bson:"pos_x"`
	PosY         float64   `bson:"pos_y"`
	DiscoveredAt time.Time `bson:"discovered_at"`
}

func docFromRecord(rec DiscoveryRecord) discoveryDoc {
	return discoveryDoc{
		ObjectID:     rec.ObjectID,
		ObjectType:   rec.ObjectType,
		ChunkX:       rec.Chunk.X,
		ChunkY:       rec.Chunk.Y,
		PosX:         rec.Position.X,
		PosY:         rec.Position.Y,
		DiscoveredAt: rec.DiscoveredAt,
	}
}

func (d discoveryDoc) toRecord() DiscoveryRecord {
	return DiscoveryRecord{
		ObjectID:     d.ObjectID,
		ObjectType:   d.ObjectType,
		Chunk:        vec.Vec2{X: d.ChunkX, Y: d.ChunkY},
		Position:     vec.Vec2Float{X: d.PosX, Y: d.PosY},
		DiscoveredAt: d.DiscoveredAt,
	}
}

// NewMongoDiscoveryRepo создаёт репозиторий открытий поверх MongoDB.
func NewMongoDiscoveryRepo(ctx context.Context, uri, database string) (*MongoDiscoveryRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("не удалось проверить соединение с MongoDB: %w", err)
	}

	coll := client.Database(database).Collection("discoveries")

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chunk_x", Value: 1}, {Key: "chunk_y", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("не удалось создать индекс чанков: %w", err)
	}

	logging.Info("Подключение к MongoDB установлено: %s/%s", uri, database)
	return &MongoDiscoveryRepo{client: client, coll: coll}, nil
}

// Save сохраняет запись об открытии. Дубликат _id игнорируется:
// первая отметка времени побеждает.
func (r *MongoDiscoveryRepo) Save(ctx context.Context, rec DiscoveryRecord) error {
	if rec.ObjectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	_, err := r.coll.InsertOne(ctx, docFromRecord(rec))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка сохранения открытия %s: %w", rec.ObjectID, err)
	}
	return nil
}

// Load загружает запись по идентичности объекта.
func (r *MongoDiscoveryRepo) Load(ctx context.Context, objectID string) (DiscoveryRecord, bool, error) {
	if objectID == "" {
		return DiscoveryRecord{}, false, fmt.Errorf("пустая идентичность объекта")
	}

	var doc discoveryDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return DiscoveryRecord{}, false, nil
	}
	if err != nil {
		return DiscoveryRecord{}, false, fmt.Errorf("ошибка загрузки открытия %s: %w", objectID, err)
	}
	return doc.toRecord(), true, nil
}

// LoadChunk загружает все открытия чанка.
func (r *MongoDiscoveryRepo) LoadChunk(ctx context.Context, coords vec.Vec2) ([]DiscoveryRecord, error) {
	return r.find(ctx, bson.M{"chunk_x": coords.X, "chunk_y": coords.Y})
}

// LoadAll возвращает полный журнал открытий.
func (r *MongoDiscoveryRepo) LoadAll(ctx context.Context) ([]DiscoveryRecord, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoDiscoveryRepo) find(ctx context.Context, filter bson.M) ([]DiscoveryRecord, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса открытий: %w", err)
	}
	defer cursor.Close(ctx)

	var result []DiscoveryRecord
	for cursor.Next(ctx) {
		var doc discoveryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("ошибка декодирования открытия: %w", err)
		}
		result = append(result, doc.toRecord())
	}
	return result, cursor.Err()
}

// BatchSave сохраняет пачку записей; дубликаты молча пропускаются.
func (r *MongoDiscoveryRepo) BatchSave(ctx context.Context, recs []DiscoveryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(recs))
	for i, rec := range recs {
		if rec.ObjectID == "" {
			return fmt.Errorf("пустая идентичность объекта в batch (запись %d)", i)
		}
		docs = append(docs, docFromRecord(rec))
	}

	// Unordered: ошибка дубликата не прерывает вставку остальных
	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		if bulkErr, ok := err.(mongo.BulkWriteException); ok {
			for _, we := range bulkErr.WriteErrors {
				if we.Code != 11000 { // duplicate key
					return fmt.Errorf("ошибка batch-сохранения: %w", err)
				}
			}
			return nil
		}
		return fmt.Errorf("ошибка batch-сохранения: %w", err)
	}
	return nil
}

// Delete удаляет запись об открытии.
func (r *MongoDiscoveryRepo) Delete(ctx context.Context, objectID string) error {
	if objectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("ошибка удаления открытия %s: %w", objectID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("открытие %s не найдено", objectID)
	}
	return nil
}

// Reset стирает весь журнал открытий.
func (r *MongoDiscoveryRepo) Reset(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("ошибка сброса журнала: %w", err)
	}
	return nil
}

// Count возвращает число записей в журнале.
func (r *MongoDiscoveryRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта открытий: %w", err)
	}
	return int(n), nil
}

// Close закрывает соединение с MongoDB.
func (r *MongoDiscoveryRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
