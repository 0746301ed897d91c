package app

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Spok95/school-app-bot/internal/audit"
	"github.com/Spok95/school-app-bot/internal/bot/screens"
	"github.com/Spok95/school-app-bot/internal/config"
	"github.com/Spok95/school-app-bot/internal/navigation"
	"github.com/Spok95/school-app-bot/internal/notify"
	"github.com/Spok95/school-app-bot/internal/push"
	"github.com/Spok95/school-app-bot/internal/session"
	"github.com/Spok95/school-app-bot/internal/storage"
	"github.com/Spok95/school-app-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Device — состояние одного чата-устройства: хранилище, сессия, push,
// навигатор и резолвер отложенной навигации. Собирается лениво при первом
// апдейте из чата и живёт до конца процесса.
type Device struct {
	ChatID    int64
	Store     storage.Store
	Session   *session.Manager
	Registrar *push.Registrar
	Navigator *screens.ChatNavigator
	Resolver  *navigation.Resolver
	Hub       *notify.Hub

	unsubscribe []func()
}

// App — телеграм-хост приложения.
type App struct {
	bot  *tgbotapi.BotAPI
	send *tg.Sender
	db   *sql.DB
	cfg  *config.Config
	log  *zap.SugaredLogger

	mu      sync.Mutex
	devices map[int64]*Device
}

func New(bot *tgbotapi.BotAPI, db *sql.DB, cfg *config.Config, log *zap.SugaredLogger) *App {
	return &App{
		bot:     bot,
		send:    tg.NewSender(bot),
		db:      db,
		cfg:     cfg,
		log:     log,
		devices: make(map[int64]*Device),
	}
}

// Device возвращает устройство чата, создавая и бутстрапя его при первом
// обращении: восстановление сессии, подписка резолвера на тапы уведомлений,
// привязка резолвера к готовности навигатора.
func (a *App) Device(ctx context.Context, chatID int64) *Device {
	a.mu.Lock()
	if d, ok := a.devices[chatID]; ok {
		a.mu.Unlock()
		return d
	}
	a.mu.Unlock()

	store := storage.NewPostgres(a.db, chatID)
	auditLog := audit.NewLog(a.db, chatID)
	registrar := push.NewRegistrar(store,
		push.StaticTokenSource{Value: a.cfg.PushToken},
		a.cfg.BackendURL, a.cfg.DeviceType, a.log)
	sess := session.NewManager(store, registrar, auditLog, a.log)
	nav := screens.NewChatNavigator(chatID, a.send, sess)
	resolver := navigation.NewResolver(nav, a.log)
	hub := notify.NewHub()

	d := &Device{
		ChatID:    chatID,
		Store:     store,
		Session:   sess,
		Registrar: registrar,
		Navigator: nav,
		Resolver:  resolver,
		Hub:       hub,
	}

	// тап по уведомлению → захват намерения (и немедленная попытка перехода)
	d.unsubscribe = append(d.unsubscribe, hub.SubscribeTapped(resolver.CaptureIntent))
	// уведомление на переднем плане — только лог, без навигации
	d.unsubscribe = append(d.unsubscribe, hub.SubscribeReceived(func(p notify.Payload) {
		a.log.Debugw("уведомление получено на переднем плане",
			"chat_id", chatID, "navigate_to", p.Data.NavigateTo)
	}))
	// холодный старт: навигатор смонтировался позже тапа — доигрываем
	nav.OnReady(resolver.OnNavigatorReady)

	// восстановление сессии до первого ответа пользователю: UI, который
	// ждёт "not loading", увидит уже решённое состояние
	sess.Bootstrap(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.devices[chatID]; ok {
		// проиграли гонку — чужие подписки снимаем
		for _, un := range d.unsubscribe {
			un()
		}
		return existing
	}
	a.devices[chatID] = d
	return d
}

// Devices — снимок текущих устройств (для фоновых задач).
func (a *App) Devices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Device, 0, len(a.devices))
	for _, d := range a.devices {
		out = append(out, d)
	}
	return out
}

func (a *App) isAdmin(chatID int64) bool {
	for _, id := range a.cfg.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
