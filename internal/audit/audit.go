// Package audit — локальный журнал событий клиента: логины, логауты,
// регистрации push-токена, сброшенные переходы. Запись best-effort, журнал
// нужен для админского экспорта и разбора инцидентов, не для логики.
package audit

import (
	"context"
	"database/sql"
	"log"
	"time"
)

type Event struct {
	ID        int64
	DeviceID  int64
	UserID    int64
	Event     string
	Detail    string
	CreatedAt time.Time
}

// Log пишет события в таблицу audit_log. Один экземпляр на устройство (чат).
type Log struct {
	db       *sql.DB
	deviceID int64
}

func NewLog(db *sql.DB, deviceID int64) *Log {
	return &Log{db: db, deviceID: deviceID}
}

// Record — пишет событие; ошибка только логируется, журнал не критичен.
func (l *Log) Record(ctx context.Context, userID int64, event, detail string) {
	query := `
INSERT INTO audit_log (device_id, user_id, event, detail)
VALUES ($1, $2, $3, $4)`
	if _, err := l.db.ExecContext(ctx, query, l.deviceID, userID, event, detail); err != nil {
		log.Println("Ошибка записи в audit_log:", err)
	}
}

// List возвращает события всех устройств за период, новые первыми.
func List(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]Event, error) {
	query := `
SELECT id, device_id, COALESCE(user_id, 0), event, COALESCE(detail, ''), created_at
FROM audit_log
WHERE created_at >= $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := db.QueryContext(ctx, query, since, limit)
	if err != nil {
		log.Println("Ошибка чтения audit_log:", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.UserID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune удаляет события старше keep. Возвращает число удалённых строк.
func Prune(ctx context.Context, db *sql.DB, keep time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM audit_log WHERE created_at < $1`, time.Now().Add(-keep))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
