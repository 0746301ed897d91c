package navigation

import (
	"sync"
	"time"

	"github.com/Spok95/school-app-bot/internal/metrics"
	"github.com/Spok95/school-app-bot/internal/notify"
	"go.uber.org/zap"
)

// Ограничение повторов навигации: 5 попыток, задержка 1s с удвоением,
// потолок 5s. Константы наблюдаемы снаружи (тайминги диплинков) — не менять
// без сверки с бэкендом уведомлений.
const (
	maxReplayAttempts = 5
	baseReplayDelay   = time.Second
	maxReplayDelay    = 5 * time.Second
)

// Resolver связывает "пользователь тапнул уведомление" (возможно, до того,
// как навигатор смонтирован) с фактическим переходом. Одноместный слот
// намерения: новое намерение перетирает старое, недоигранное.
type Resolver struct {
	nav Navigator
	log *zap.SugaredLogger

	// подменяется в тестах, по умолчанию time.AfterFunc
	after func(d time.Duration, fn func())

	mu      sync.Mutex
	pending *Intent

	readyOnce sync.Once
}

func NewResolver(nav Navigator, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{
		nav: nav,
		log: log,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// CaptureIntent разбирает полезную нагрузку уведомления. Известные цели —
// закрытый набор; неизвестный дискриминатор — no-op, не ошибка. Затем сразу
// пробуем переход: покрывает случай, когда приложение уже запущено.
func (r *Resolver) CaptureIntent(p notify.Payload) {
	intent := intentFor(p.Data)
	if intent == nil {
		if p.Data.NavigateTo != "" {
			r.log.Debugw("неизвестная цель уведомления, игнорируем", "navigate_to", p.Data.NavigateTo)
		}
		return
	}

	r.mu.Lock()
	r.pending = intent
	r.mu.Unlock()

	r.log.Infow("принято намерение навигации", "screen", intent.Screen, "navigate_to", p.Data.NavigateTo)
	r.replay(intent, 0)
}

// OnNavigatorReady вызывается хостом навигации один раз, когда дерево
// смонтировано. Доигрывает намерение, оставшееся с холодного старта.
func (r *Resolver) OnNavigatorReady() {
	r.readyOnce.Do(func() {
		r.mu.Lock()
		intent := r.pending
		r.mu.Unlock()
		if intent != nil {
			r.log.Infow("навигатор готов, доигрываем отложенный переход", "screen", intent.Screen)
			r.replay(intent, 0)
		}
	})
}

// Pending — текущее недоигранное намерение (nil, если слот пуст).
func (r *Resolver) Pending() *Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// replay планирует попытку перехода с экспоненциальной задержкой.
// После исчерпания попыток намерение выбрасывается: нельзя, чтобы оно
// всплыло на каком-нибудь позднем и уже неуместном onReady.
func (r *Resolver) replay(intent *Intent, attempt int) {
	r.after(replayDelay(attempt), func() {
		metrics.NavReplayAttempts.Inc()
		err := r.nav.Navigate(intent.Screen, intent.Params)
		if err == nil {
			r.clear()
			r.log.Infow("переход выполнен", "screen", intent.Screen, "attempt", attempt+1)
			return
		}
		if attempt+1 < maxReplayAttempts {
			r.log.Debugw("переход не удался, повторим", "screen", intent.Screen, "attempt", attempt+1, "err", err)
			r.replay(intent, attempt+1)
			return
		}
		r.clear()
		metrics.NavReplayExhausted.Inc()
		r.log.Warnw("переход не удался после всех попыток, намерение сброшено",
			"screen", intent.Screen, "attempts", maxReplayAttempts, "err", err)
	})
}

func (r *Resolver) clear() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

func replayDelay(attempt int) time.Duration {
	d := baseReplayDelay << attempt
	if d > maxReplayDelay || d <= 0 {
		return maxReplayDelay
	}
	return d
}

func intentFor(d notify.Data) *Intent {
	switch d.NavigateTo {
	case ScreenViewComment, ScreenTaskDetail:
		if d.TaskID == "" {
			return nil
		}
		return &Intent{
			Screen: ScreenTaskManagement,
			Params: Params{
				"screen": d.NavigateTo,
				"params": Params{"taskId": d.TaskID},
			},
		}
	default:
		return nil
	}
}
