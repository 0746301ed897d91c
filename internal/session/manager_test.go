package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/school-app-bot/internal/models"
	"github.com/Spok95/school-app-bot/internal/storage"
)

// brokenStore ломает выбранные операции хранилища.
type brokenStore struct {
	storage.Store
	failSet    bool
	failDelete bool
	failGet    bool
}

func (s *brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, errors.New("storage read failure")
	}
	return s.Store.Get(ctx, key)
}

func (s *brokenStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errors.New("storage write failure")
	}
	return s.Store.Set(ctx, key, value)
}

func (s *brokenStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return errors.New("storage clear failure")
	}
	return s.Store.Delete(ctx, key)
}

type stubRegistrar struct {
	err   error
	calls []int64
}

func (r *stubRegistrar) RegisterWithBackend(_ context.Context, userID int64) error {
	r.calls = append(r.calls, userID)
	return r.err
}

func teacherProfile() models.Profile {
	return models.Profile{
		"id":        7,
		"name":      "Мария Петровна",
		"role_name": "teacher",
	}
}

func TestBootstrap_EmptyStoreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := NewManager(store, nil, nil, nil)

	if !m.IsLoading() {
		t.Fatal("до bootstrap менеджер должен быть в состоянии загрузки")
	}

	for i := 0; i < 2; i++ {
		m.Bootstrap(ctx)
		if m.IsAuthenticated() {
			t.Fatalf("пустое хранилище, итерация %d: не ожидали аутентификации", i+1)
		}
		if m.IsLoading() {
			t.Fatalf("итерация %d: флаг загрузки должен быть снят", i+1)
		}
		if got := m.State(); got != Unauthenticated {
			t.Fatalf("итерация %d: ожидали состояние %v, получили %v", i+1, Unauthenticated, got)
		}
	}
}

func TestBootstrap_ReadFailureMeansNoSession(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{Store: storage.NewMemory(), failGet: true}
	m := NewManager(store, nil, nil, nil)

	m.Bootstrap(ctx)
	if m.IsAuthenticated() {
		t.Fatal("ошибка чтения должна трактоваться как отсутствие сессии")
	}
	if m.IsLoading() {
		t.Fatal("флаг загрузки должен быть снят и при ошибке чтения")
	}
}

func TestLogin_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	m := NewManager(store, nil, nil, nil)
	m.Bootstrap(ctx)
	if err := m.Login(ctx, teacherProfile()); err != nil {
		t.Fatalf("не ожидали ошибку логина: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Fatal("после логина ожидали аутентификацию")
	}
	if got := m.State(); got != Authenticated {
		t.Fatalf("ожидали состояние %v, получили %v", Authenticated, got)
	}

	// "рестарт процесса": новый менеджер над тем же хранилищем
	m2 := NewManager(store, nil, nil, nil)
	m2.Bootstrap(ctx)
	if !m2.IsAuthenticated() {
		t.Fatal("после рестарта сессия должна восстановиться")
	}
	if got := m2.UserID(); got != 7 {
		t.Fatalf("ожидали userId=7, получили %d", got)
	}
	if got := m2.RoleName(); got != models.Teacher {
		t.Fatalf("ожидали роль teacher, получили %q", got)
	}
	if got := m2.User().Name(); got != "Мария Петровна" {
		t.Fatalf("профиль потерял имя: %q", got)
	}
}

func TestLogout_FailSafe(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{Store: storage.NewMemory(), failDelete: true}
	m := NewManager(store, nil, nil, nil)
	m.Bootstrap(ctx)
	if err := m.Login(ctx, teacherProfile()); err != nil {
		t.Fatalf("не ожидали ошибку логина: %v", err)
	}

	m.Logout(ctx)
	if m.IsAuthenticated() {
		t.Fatal("logout обязан разлогинить даже при падении очистки хранилища")
	}
	if m.User() != nil {
		t.Fatal("после logout профиль должен быть пуст")
	}
	if got := m.State(); got != Unauthenticated {
		t.Fatalf("ожидали состояние %v, получили %v", Unauthenticated, got)
	}
}

func TestUpdateUser_MergesNotReplaces(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	m := NewManager(store, nil, nil, nil)
	m.Bootstrap(ctx)
	if err := m.Login(ctx, models.Profile{
		"id":            1,
		"name":          "A",
		"role_name":     "teacher",
		"profile_image": "x.png",
	}); err != nil {
		t.Fatalf("не ожидали ошибку логина: %v", err)
	}

	if err := m.UpdateUser(ctx, models.Profile{"profile_image": "y.png"}); err != nil {
		t.Fatalf("не ожидали ошибку обновления: %v", err)
	}

	u := m.User()
	if got := u["name"]; got != "A" {
		t.Fatalf("слияние потеряло поле name: %v", got)
	}
	if got := u.ProfileImage(); got != "y.png" {
		t.Fatalf("ожидали profile_image=y.png, получили %q", got)
	}
	if got := m.UserImage(); got != "y.png" {
		t.Fatalf("производное поле изображения не обновилось: %q", got)
	}

	// обновлённый профиль переживает рестарт
	m2 := NewManager(store, nil, nil, nil)
	m2.Bootstrap(ctx)
	if got := m2.User().ProfileImage(); got != "y.png" {
		t.Fatalf("после рестарта ожидали y.png, получили %q", got)
	}
	if got := m2.User()["name"]; got != "A" {
		t.Fatalf("после рестарта слияние потеряло name: %v", got)
	}
}

func TestLogin_SurvivesPushRegistrationError(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	reg := &stubRegistrar{err: errors.New("разрешение на уведомления не получено")}
	m := NewManager(store, reg, nil, nil)
	m.Bootstrap(ctx)

	if err := m.Login(ctx, teacherProfile()); err != nil {
		t.Fatalf("ошибка push-регистрации не должна валить логин: %v", err)
	}
	if !m.IsAuthenticated() {
		t.Fatal("логин должен завершиться несмотря на ошибку push-регистрации")
	}
	if len(reg.calls) != 1 || reg.calls[0] != 7 {
		t.Fatalf("регистрация должна быть вызвана для userId=7, вызовы: %v", reg.calls)
	}
}

func TestLogin_WriteFailureKeepsInMemorySession(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{Store: storage.NewMemory(), failSet: true}
	m := NewManager(store, nil, nil, nil)
	m.Bootstrap(ctx)

	err := m.Login(ctx, teacherProfile())
	if err == nil {
		t.Fatal("ожидали ошибку записи сессии")
	}
	if !m.IsAuthenticated() {
		t.Fatal("сессия в памяти должна жить независимо от ошибки записи")
	}
}
