package storage

import (
	"context"
	"database/sql"
	"errors"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open открывает подключение к Postgres через pgx-драйвер.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Postgres — key-value хранилище устройства поверх таблицы app_kv.
// Мобильное приложение — одно устройство; телеграм-хост мультиплексирует
// устройства, поэтому ключи неймспейсятся по device_id (chatID).
type Postgres struct {
	db       *sql.DB
	deviceID int64
}

func NewPostgres(db *sql.DB, deviceID int64) *Postgres {
	return &Postgres{db: db, deviceID: deviceID}
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM app_kv WHERE device_id = $1 AND key = $2`
	var v string
	err := s.db.QueryRowContext(ctx, query, s.deviceID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		log.Println("Ошибка чтения app_kv:", err)
		return "", false, err
	}
	return v, true, nil
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	query := `
INSERT INTO app_kv (device_id, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (device_id, key) DO UPDATE SET value = excluded.value;`
	_, err := s.db.ExecContext(ctx, query, s.deviceID, key, value)
	if err != nil {
		log.Println("Ошибка записи app_kv:", err)
	}
	return err
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM app_kv WHERE device_id = $1 AND key = $2`
	_, err := s.db.ExecContext(ctx, query, s.deviceID, key)
	if err != nil {
		log.Println("Ошибка удаления из app_kv:", err)
	}
	return err
}
