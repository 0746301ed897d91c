package models

import "encoding/json"

type Role string

const (
	Student Role = "student"
	Teacher Role = "teacher"
	Parent  Role = "parent"
	Admin   Role = "admin"
)

// ParseRole — нормализует строку роли из бэкенда/хранилища.
// Неизвестная строка остаётся как есть: меню для неё будет пустым.
func ParseRole(s string) Role { return Role(s) }

// Profile — непрозрачная запись профиля пользователя, как её отдаёт бэкенд.
// Храним JSON-объект целиком, чтобы частичное обновление не теряло поля,
// о которых клиент не знает.
type Profile map[string]any

// Производные поля. Бэкенд отдаёт id числом, но после JSON-раунда он
// приходит как float64 — поддерживаем оба варианта.
func (p Profile) ID() int64 {
	switch v := p["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func (p Profile) RoleName() Role {
	if s, ok := p["role_name"].(string); ok {
		return ParseRole(s)
	}
	return ""
}

func (p Profile) Name() string {
	if s, ok := p["name"].(string); ok {
		return s
	}
	return ""
}

func (p Profile) ProfileImage() string {
	if s, ok := p["profile_image"].(string); ok {
		return s
	}
	return ""
}

// Merge возвращает копию профиля с наложенными поверх полями из patch.
// Семантика слияния, не замены: поля, которых нет в patch, сохраняются.
func (p Profile) Merge(patch Profile) Profile {
	out := make(Profile, len(p)+len(patch))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
