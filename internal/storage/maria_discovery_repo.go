package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tekknoschtev/astral-surveyor-sub000/internal/vec"
)

// MariaDiscoveryRepo реализует DiscoveryRepo для базы данных MariaDB/MySQL.
// Использует таблицу discoveries с первичным ключом по идентичности объекта.
type MariaDiscoveryRepo struct {
	db *sql.DB
}

// NewMariaDiscoveryRepo создает новый репозиторий открытий для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaDiscoveryRepo(dsn string) (*MariaDiscoveryRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaDiscoveryRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу discoveries, если она не существует.
func (r *MariaDiscoveryRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS discoveries (
			object_id     VARCHAR(128) PRIMARY KEY,
			object_type   VARCHAR(32)  NOT NULL,
			chunk_x       INT          NOT NULL,
			chunk_y       INT          NOT NULL,
			pos_x         DOUBLE       NOT NULL,
			pos_y         DOUBLE       NOT NULL,
			discovered_at TIMESTAMP(6) NOT NULL,
			INDEX idx_chunk (chunk_x, chunk_y)
		) ENGINE=InnoDB
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы discoveries: %w", err)
	}
	return nil
}

// Save сохраняет запись об открытии.
// INSERT IGNORE сохраняет идемпотентность: первая отметка побеждает.
func (r *MariaDiscoveryRepo) Save(ctx context.Context, rec DiscoveryRecord) error {
	if rec.ObjectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	query := `
		INSERT IGNORE INTO discoveries
			(object_id, object_type, chunk_x, chunk_y, pos_x, pos_y, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ObjectID, rec.ObjectType, rec.Chunk.X, rec.Chunk.Y,
		rec.Position.X, rec.Position.Y, rec.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения открытия %s: %w", rec.ObjectID, err)
	}
	return nil
}

// Load загружает запись по идентичности объекта.
func (r *MariaDiscoveryRepo) Load(ctx context.Context, objectID string) (DiscoveryRecord, bool, error) {
	if objectID == "" {
		return DiscoveryRecord{}, false, fmt.Errorf("пустая идентичность объекта")
	}

	query := `
		SELECT object_id, object_type, chunk_x, chunk_y, pos_x, pos_y, discovered_at
		FROM discoveries WHERE object_id = ?
	`

	var rec DiscoveryRecord
	err := r.db.QueryRowContext(ctx, query, objectID).Scan(
		&rec.ObjectID, &rec.ObjectType, &rec.Chunk.X, &rec.Chunk.Y,
		&rec.Position.X, &rec.Position.Y, &rec.DiscoveredAt)

	if err == sql.ErrNoRows {
		return DiscoveryRecord{}, false, nil
	}
	if err != nil {
		return DiscoveryRecord{}, false, fmt.Errorf("ошибка загрузки открытия %s: %w", objectID, err)
	}
	return rec, true, nil
}

// LoadChunk загружает все открытия чанка.
func (r *MariaDiscoveryRepo) LoadChunk(ctx context.Context, coords vec.Vec2) ([]DiscoveryRecord, error) {
	query := `
		SELECT object_id, object_type, chunk_x, chunk_y, pos_x, pos_y, discovered_at
		FROM discoveries WHERE chunk_x = ? AND chunk_y = ?
	`
	return r.queryRecords(ctx, query, coords.X, coords.Y)
}

// LoadAll возвращает полный журнал открытий.
func (r *MariaDiscoveryRepo) LoadAll(ctx context.Context) ([]DiscoveryRecord, error) {
	query := `
		SELECT object_id, object_type, chunk_x, chunk_y, pos_x, pos_y, discovered_at
		FROM discoveries ORDER BY discovered_at
	`
	return r.queryRecords(ctx, query)
}

func (r *MariaDiscoveryRepo) queryRecords(ctx context.Context, query string, args ...interface{}) ([]DiscoveryRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса открытий: %w", err)
	}
	defer rows.Close()

	var result []DiscoveryRecord
	for rows.Next() {
		var rec DiscoveryRecord
		if err := rows.Scan(
			&rec.ObjectID, &rec.ObjectType, &rec.Chunk.X, &rec.Chunk.Y,
			&rec.Position.X, &rec.Position.Y, &rec.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки открытия: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// BatchSave сохраняет пачку записей в одной транзакции.
func (r *MariaDiscoveryRepo) BatchSave(ctx context.Context, recs []DiscoveryRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT IGNORE INTO discoveries
			(object_id, object_type, chunk_x, chunk_y, pos_x, pos_y, discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		if rec.ObjectID == "" {
			return fmt.Errorf("пустая идентичность объекта в batch (запись %d)", i)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ObjectID, rec.ObjectType, rec.Chunk.X, rec.Chunk.Y,
			rec.Position.X, rec.Position.Y, rec.DiscoveredAt); err != nil {
			return fmt.Errorf("ошибка batch-сохранения открытия %s: %w", rec.ObjectID, err)
		}
	}

	return tx.Commit()
}

// Delete удаляет запись об открытии.
func (r *MariaDiscoveryRepo) Delete(ctx context.Context, objectID string) error {
	if objectID == "" {
		return fmt.Errorf("пустая идентичность объекта")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM discoveries WHERE object_id = ?`, objectID)
	if err != nil {
		return fmt.Errorf("ошибка удаления открытия %s: %w", objectID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("открытие %s не найдено", objectID)
	}
	return nil
}

// Reset стирает весь журнал открытий.
func (r *MariaDiscoveryRepo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE TABLE discoveries`); err != nil {
		return fmt.Errorf("ошибка сброса журнала: %w", err)
	}
	return nil
}

// Count возвращает число записей в журнале.
func (r *MariaDiscoveryRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM discoveries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта открытий: %w", err)
	}
	return n, nil
}

// Close закрывает соединение с базой данных.
func (r *MariaDiscoveryRepo) Close() error {
	return r.db.Close()
}
