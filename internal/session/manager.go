package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/Spok95/school-app-bot/internal/metrics"
	"github.com/Spok95/school-app-bot/internal/models"
	"github.com/Spok95/school-app-bot/internal/storage"
	"go.uber.org/zap"
)

type State int

const (
	Uninitialized State = iota
	Loading
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "uninitialized"
	}
}

// Registrar — регистрация push-токена у бэкенда. Вызывается после логина
// best-effort: ошибка логируется и не валит логин.
type Registrar interface {
	RegisterWithBackend(ctx context.Context, userID int64) error
}

// Auditor — локальный журнал событий сессии. Необязательный (nil — выключен).
type Auditor interface {
	Record(ctx context.Context, userID int64, event, detail string)
}

// Manager — единственный владелец состояния "кто залогинен" на устройстве.
// Все остальные компоненты читают его через геттеры и не пишут в хранилище
// сессии напрямую.
type Manager struct {
	store     storage.Store
	registrar Registrar
	audit     Auditor
	log       *zap.SugaredLogger

	mu        sync.Mutex
	state     State
	user      models.Profile
	userID    int64
	roleName  models.Role
	userImage string
	loading   bool
}

func NewManager(store storage.Store, registrar Registrar, audit Auditor, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		store:     store,
		registrar: registrar,
		audit:     audit,
		log:       log,
		state:     Uninitialized,
		loading:   true,
	}
}

// Bootstrap восстанавливает сессию из хранилища при старте. Ошибка чтения
// трактуется как "сессии нет" и наружу не отдаётся; флаг загрузки снимается
// в любом случае.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	m.state = Loading
	m.mu.Unlock()

	var (
		user     models.Profile
		userID   int64
		roleName models.Role
		image    string
		loggedIn bool
	)

	if v, ok, err := m.store.Get(ctx, storage.KeyIsLoggedIn); err == nil && ok && v == "true" {
		loggedIn = true
	}
	if loggedIn {
		if raw, ok, err := m.store.Get(ctx, storage.KeyUserData); err == nil && ok {
			if err := json.Unmarshal([]byte(raw), &user); err != nil {
				m.log.Warnw("битый userData в хранилище, сессия сброшена", "err", err)
				user = nil
			}
		}
		if user == nil {
			loggedIn = false
		} else {
			if v, ok, err := m.store.Get(ctx, storage.KeyUserID); err == nil && ok {
				userID, _ = strconv.ParseInt(v, 10, 64)
			}
			if v, ok, err := m.store.Get(ctx, storage.KeyRoleName); err == nil && ok {
				roleName = models.ParseRole(v)
			}
			image = user.ProfileImage()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if loggedIn {
		m.user = user
		m.userID = userID
		m.roleName = roleName
		m.userImage = image
		m.state = Authenticated
	} else {
		m.resetLocked()
	}
	m.loading = false
}

// Login сохраняет профиль, обновляет состояние и best-effort регистрирует
// push-токен. Ошибка записи в хранилище логируется и возвращается, но
// состояние в памяти обновляется независимо от неё.
func (m *Manager) Login(ctx context.Context, profile models.Profile) error {
	writeErr := m.persist(ctx, profile)
	if writeErr != nil {
		m.log.Errorw("не удалось сохранить сессию", "err", writeErr)
	}

	m.mu.Lock()
	m.user = profile
	m.userID = profile.ID()
	m.roleName = profile.RoleName()
	m.userImage = profile.ProfileImage()
	m.loading = false
	m.state = Authenticated
	userID := m.userID
	m.mu.Unlock()

	metrics.Logins.Inc()
	m.recordAudit(ctx, userID, "login", string(profile.RoleName()))

	// Регистрация push-токена после логина. Любая ошибка (нет разрешения,
	// нет сети, нет токена) не должна ломать логин.
	if m.registrar != nil {
		if err := m.registrar.RegisterWithBackend(ctx, userID); err != nil {
			m.log.Warnw("регистрация push-токена не удалась", "user_id", userID, "err", err)
			metrics.PushRegisterErrors.Inc()
		}
	}
	return writeErr
}

// Logout всегда приводит к разлогиненному состоянию: даже если очистка
// хранилища упала, память сбрасывается. Полузалогиненное состояние хуже,
// чем лишний повторный логин.
func (m *Manager) Logout(ctx context.Context) {
	var userID int64
	m.mu.Lock()
	userID = m.userID
	m.mu.Unlock()

	for _, key := range []string{
		storage.KeyUserData,
		storage.KeyUserID,
		storage.KeyRoleName,
		storage.KeyIsLoggedIn,
	} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.Errorw("очистка сессии не удалась", "key", key, "err", err)
		}
	}

	m.mu.Lock()
	m.resetLocked()
	m.loading = false
	m.mu.Unlock()

	m.recordAudit(ctx, userID, "logout", "")
}

// UpdateUser — частичное обновление профиля: слияние, не замена.
// Поля, которых нет в patch, сохраняются.
func (m *Manager) UpdateUser(ctx context.Context, patch models.Profile) error {
	m.mu.Lock()
	if m.user == nil {
		m.mu.Unlock()
		return nil
	}
	merged := m.user.Merge(patch)
	m.user = merged
	if _, ok := patch["role_name"]; ok {
		m.roleName = merged.RoleName()
	}
	if _, ok := patch["profile_image"]; ok {
		m.userImage = merged.ProfileImage()
	}
	m.mu.Unlock()

	if err := m.persist(ctx, merged); err != nil {
		m.log.Errorw("не удалось сохранить обновлённый профиль", "err", err)
		return err
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, profile models.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, storage.KeyUserData, string(raw)); err != nil {
		return err
	}
	if err := m.store.Set(ctx, storage.KeyUserID, strconv.FormatInt(profile.ID(), 10)); err != nil {
		return err
	}
	if err := m.store.Set(ctx, storage.KeyRoleName, string(profile.RoleName())); err != nil {
		return err
	}
	return m.store.Set(ctx, storage.KeyIsLoggedIn, "true")
}

func (m *Manager) resetLocked() {
	m.user = nil
	m.userID = 0
	m.roleName = ""
	m.userImage = ""
	m.state = Unauthenticated
}

func (m *Manager) recordAudit(ctx context.Context, userID int64, event, detail string) {
	if m.audit != nil {
		m.audit.Record(ctx, userID, event, detail)
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated истинно тогда и только тогда, когда профиль не пуст.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Manager) User() models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) UserID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

func (m *Manager) RoleName() models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roleName
}

func (m *Manager) UserImage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userImage
}
