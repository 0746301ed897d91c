package storage

import "context"

// Ключи клиентского состояния. Набор фиксированный, версионирования схемы
// нет: отсутствие ключа значит "значения нет".
const (
	KeyUserData   = "userData"
	KeyUserID     = "userId"
	KeyRoleName   = "roleName"
	KeyIsLoggedIn = "isLoggedIn"
	KeyPushToken  = "pushToken"
	KeyDeviceID   = "deviceId"
)

// Store — персистентное key-value хранилище устройства. Get возвращает
// ok=false для отсутствующего ключа, это не ошибка.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
