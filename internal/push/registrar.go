// Package push — получение push-токена устройства и его регистрация
// на бэкенде. Вся работа best-effort: авторизация и навигация обязаны
// работать, даже если уведомления недоступны целиком.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Spok95/school-app-bot/internal/metrics"
	"github.com/Spok95/school-app-bot/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPermissionDenied — пользователь не дал разрешение на уведомления.
var ErrPermissionDenied = errors.New("разрешение на уведомления не получено")

// TokenSource — внешняя способность платформы выдать push-токен
// (запрос разрешения + выпуск токена). Ядро её не реализует.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource — источник для безэкранного хоста: токен задан конфигом.
// Пустой токен трактуем как отказ в разрешении.
type StaticTokenSource struct {
	Value string
}

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s.Value == "" {
		return "", ErrPermissionDenied
	}
	return s.Value, nil
}

// Registrar регистрирует push-токен устройства на бэкенде. Регистрация
// идемпотентна: пересылаем на каждом логине, токен заново не запрашиваем,
// пока он лежит в кэше.
type Registrar struct {
	store      storage.Store
	src        TokenSource
	backendURL string
	deviceType string
	client     *http.Client
	log        *zap.SugaredLogger
}

func NewRegistrar(store storage.Store, src TokenSource, backendURL, deviceType string, log *zap.SugaredLogger) *Registrar {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if !strings.HasSuffix(backendURL, "/") && backendURL != "" {
		backendURL += "/"
	}
	return &Registrar{
		store:      store,
		src:        src,
		backendURL: backendURL,
		deviceType: deviceType,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// EnsureToken возвращает закэшированный токен, либо запрашивает новый у
// платформы и кладёт его в кэш. На устройстве не больше одного токена.
func (r *Registrar) EnsureToken(ctx context.Context) (string, error) {
	if token, ok, err := r.store.Get(ctx, storage.KeyPushToken); err == nil && ok && token != "" {
		return token, nil
	}
	token, err := r.src.Token(ctx)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, storage.KeyPushToken, token); err != nil {
		// токен получен — регистрация важнее кэша
		r.log.Warnw("не удалось закэшировать push-токен", "err", err)
	}
	return token, nil
}

// RegisterWithBackend отправляет токен на бэкенд для этого пользователя.
// Любая ошибка возвращается вызывающему, но не должна его валить:
// менеджер сессии ловит и логирует.
func (r *Registrar) RegisterWithBackend(ctx context.Context, userID int64) error {
	token, err := r.EnsureToken(ctx)
	if err != nil {
		return err
	}
	if r.backendURL == "" {
		return errors.New("BACKEND_URL не задан")
	}

	body, err := json.Marshal(map[string]any{
		"user_id":     userID,
		"push_token":  token,
		"device_type": r.deviceType,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.backendURL+"register-push-token", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("register-push-token: http %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	metrics.PushRegistered.Inc()
	r.log.Infow("✅ push-токен зарегистрирован", "user_id", userID, "device_id", r.DeviceID(ctx))
	return nil
}

// DeviceID — стабильный идентификатор установки: генерируется один раз
// и живёт в хранилище устройства.
func (r *Registrar) DeviceID(ctx context.Context) string {
	if id, ok, err := r.store.Get(ctx, storage.KeyDeviceID); err == nil && ok {
		return id
	}
	id := uuid.NewString()
	if err := r.store.Set(ctx, storage.KeyDeviceID, id); err != nil {
		return id
	}
	return id
}
