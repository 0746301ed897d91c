package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Spok95/school-app-bot/internal/app"
	"github.com/Spok95/school-app-bot/internal/config"
	"github.com/Spok95/school-app-bot/internal/jobs"
	"github.com/Spok95/school-app-bot/internal/logging"
	"github.com/Spok95/school-app-bot/internal/metrics"
	"github.com/Spok95/school-app-bot/internal/observability"
	"github.com/Spok95/school-app-bot/internal/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

const release = "school-app-bot@dev"

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Конфигурация: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Логгер: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Sugar.Warnw("Sentry не инициализирован", "err", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище клиентского состояния
	db, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("Ошибка подключения к БД", "err", err)
	}
	defer func() { _ = db.Close() }()

	if err := storage.Migrate(db); err != nil {
		lg.Sugar.Fatalw("Миграция не удалась", "err", err)
	}

	// Телеграм-хост
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		lg.Sugar.Fatalw("Ошибка запуска бота", "err", err)
	}
	lg.Sugar.Infof("Бот запущен как %s", bot.Self.UserName)

	a := app.New(bot, db, cfg, lg.Sugar)

	app.StartHTTP(ctx, cfg.HTTPAddr, db)

	runner := jobs.New(ctx)
	a.RegisterJobs(runner)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			lg.Sugar.Info("Остановка по сигналу")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			metrics.BotUpdates.Inc()
			if update.CallbackQuery != nil {
				a.HandleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			a.HandleMessage(ctx, update.Message)
		}
	}
}
