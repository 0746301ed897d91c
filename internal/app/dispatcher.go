package app

import (
	"context"
	"strings"
	"time"

	"github.com/Spok95/school-app-bot/internal/audit"
	"github.com/Spok95/school-app-bot/internal/bot/menu"
	"github.com/Spok95/school-app-bot/internal/export"
	"github.com/Spok95/school-app-bot/internal/metrics"
	"github.com/Spok95/school-app-bot/internal/models"
	"github.com/Spok95/school-app-bot/internal/navigation"
	"github.com/Spok95/school-app-bot/internal/notify"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleMessage — маршрутизация текстовых команд и кнопок меню.
func (a *App) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := msg.Text
	d := a.Device(ctx, chatID)

	if text == "/start" {
		if !d.Session.IsAuthenticated() {
			out := tgbotapi.NewMessage(chatID, "Выберите роль для входа:")
			out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Ученик", "reg_student"),
					tgbotapi.NewInlineKeyboardButtonData("Родитель", "reg_parent"),
				),
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Учитель", "reg_teacher"),
					tgbotapi.NewInlineKeyboardButtonData("Администратор", "reg_admin"),
				),
			)
			if _, err := a.send.Send(ctx, out); err != nil {
				metrics.HandlerErrors.Inc()
			}
			return
		}
		// сессия восстановлена из хранилища — монтируем навигацию;
		// SetReady доиграет отложенный диплинк, если тап был раньше
		d.Navigator.SetReady()
		if err := d.Navigator.Navigate("Dashboard", nil); err != nil {
			metrics.HandlerErrors.Inc()
			a.log.Warnw("не удалось показать главный экран", "chat_id", chatID, "err", err)
		}
		return
	}

	if text == "/logout" {
		d.Session.Logout(ctx)
		out := tgbotapi.NewMessage(chatID, "Вы вышли из аккаунта. /start — войти снова.")
		out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		if _, err := a.send.Send(ctx, out); err != nil {
			metrics.HandlerErrors.Inc()
		}
		return
	}

	// Всё остальное требует сессии
	if !d.Session.IsAuthenticated() {
		_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "⚠️ Вы не вошли. Нажмите /start для входа."))
		return
	}

	switch {
	case text == menu.ExportButton:
		if !a.isAdmin(chatID) && d.Session.RoleName() != models.Admin {
			_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "🚫 Экспорт доступен только администратору."))
			return
		}
		a.handleAuditExport(ctx, chatID)
	case text == "/test_push":
		// тестовое уведомление с диплинком (аналог пуша от бэкенда)
		if !a.isAdmin(chatID) {
			return
		}
		out := tgbotapi.NewMessage(chatID, "🔔 Новая задача №42: проверить журнал посещаемости.")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Открыть задачу", "open_task_42"),
				tgbotapi.NewInlineKeyboardButtonData("Комментарии", "open_comment_42"),
			),
		)
		if _, err := a.send.Send(ctx, out); err != nil {
			metrics.HandlerErrors.Inc()
		}
	case strings.HasPrefix(text, "/rename "):
		// частичное обновление профиля: меняется только имя
		name := strings.TrimSpace(strings.TrimPrefix(text, "/rename "))
		if name == "" {
			_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "⚠️ Укажите имя: /rename Иван Иванов"))
			return
		}
		if err := d.Session.UpdateUser(ctx, models.Profile{"name": name}); err != nil {
			metrics.HandlerErrors.Inc()
		}
		_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "✅ Имя обновлено: "+name))
	case menu.ScreenForButton(text) != "":
		if err := d.Navigator.Navigate(menu.ScreenForButton(text), nil); err != nil {
			metrics.HandlerErrors.Inc()
			a.log.Warnw("переход по кнопке меню не удался", "chat_id", chatID, "text", text, "err", err)
		}
	default:
		_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "⚠️ Неизвестная команда. Используйте /start"))
	}
}

// HandleCallback — inline-кнопки: выбор роли при входе и тапы по
// уведомлениям с диплинками.
func (a *App) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	d := a.Device(ctx, chatID)

	// Всегда отвечаем на колбэк, чтобы Telegram "разморозил" UI
	_, _ = a.send.Request(ctx, tgbotapi.NewCallback(cb.ID, ""))

	if role, ok := strings.CutPrefix(data, "reg_"); ok {
		a.handleLogin(ctx, d, cb, models.ParseRole(role))
		return
	}

	// Тап по уведомлению → событие платформы уведомлений. Дальше работает
	// резолвер: захват намерения, немедленная попытка, повторы.
	if id, ok := strings.CutPrefix(data, "open_task_"); ok {
		d.Hub.EmitTapped(notify.Payload{Data: notify.Data{
			NavigateTo: navigation.ScreenTaskDetail, TaskID: id,
		}})
		return
	}
	if id, ok := strings.CutPrefix(data, "open_comment_"); ok {
		d.Hub.EmitTapped(notify.Payload{Data: notify.Data{
			NavigateTo: navigation.ScreenViewComment, TaskID: id,
		}})
		return
	}

	_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "⚠️ Неизвестная команда. Используйте /start"))
}

// handleLogin собирает профиль и пропускает его через менеджер сессии.
// В мобильном клиенте профиль отдаёт бэкенд после проверки пароля; хосту
// достаточно данных телеграм-аккаунта.
func (a *App) handleLogin(ctx context.Context, d *Device, cb *tgbotapi.CallbackQuery, role models.Role) {
	name := strings.TrimSpace(cb.From.FirstName + " " + cb.From.LastName)
	profile := models.Profile{
		"id":        cb.From.ID,
		"name":      name,
		"role_name": string(role),
	}

	if err := d.Session.Login(ctx, profile); err != nil {
		// сессия в памяти жива, просто не переживёт рестарт
		a.log.Errorw("логин с ошибкой записи сессии", "chat_id", d.ChatID, "err", err)
	}

	d.Navigator.SetReady()
	if err := d.Navigator.Navigate("Dashboard", nil); err != nil {
		metrics.HandlerErrors.Inc()
		a.log.Warnw("не удалось показать главный экран после входа", "chat_id", d.ChatID, "err", err)
	}
}

func (a *App) handleAuditExport(ctx context.Context, chatID int64) {
	events, err := audit.List(ctx, a.db, time.Now().AddDate(0, -1, 0), 5000)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = a.send.Send(ctx, tgbotapi.NewMessage(chatID, "❌ Не удалось прочитать журнал."))
		return
	}

	wb, err := export.NewAuditWorkbook([]export.SheetSpec{
		export.BuildAuditSheet(events, a.cfg.Location),
	})
	if err != nil {
		metrics.HandlerErrors.Inc()
		a.log.Errorw("сборка книги журнала не удалась", "err", err)
		return
	}
	path, err := wb.SaveTemp()
	if err != nil {
		metrics.HandlerErrors.Inc()
		a.log.Errorw("сохранение книги журнала не удалось", "err", err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "📥 Журнал событий за последний месяц"
	if _, err := a.send.Send(ctx, doc); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
