// Package screens — отрисовка "экранов" приложения в телеграм-чате.
// Один чат = одно устройство: у него свой навигатор, своё текущее меню.
package screens

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Spok95/school-app-bot/internal/bot/menu"
	"github.com/Spok95/school-app-bot/internal/models"
	"github.com/Spok95/school-app-bot/internal/navigation"
	"github.com/Spok95/school-app-bot/internal/session"
	"github.com/Spok95/school-app-bot/internal/tg"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Какая возможность открывает какой экран.
var screenCaps = map[string]models.Capability{
	"Dashboard":       models.CapDashboard,
	"Task Management": models.CapTasks,
	"Attendance":      models.CapAttendance,
	"Admissions":      models.CapAdmissions,
	"Manage Teachers": models.CapManageTeachers,
	"Salary":          models.CapSalary,
	"Holidays":        models.CapHolidays,
	"Child Rating":    models.CapChildRating,
}

// ChatNavigator — навигационный примитив одного чата. До монтирования
// (первый /start после старта процесса) переходы возвращают ошибку —
// резолвер отложенной навигации повторит их сам.
type ChatNavigator struct {
	chatID int64
	send   *tg.Sender
	sess   *session.Manager

	ready atomic.Bool

	mu      sync.Mutex
	onReady []func()
}

func NewChatNavigator(chatID int64, send *tg.Sender, sess *session.Manager) *ChatNavigator {
	return &ChatNavigator{chatID: chatID, send: send, sess: sess}
}

func (n *ChatNavigator) IsReady() bool { return n.ready.Load() }

// OnReady регистрирует колбэк готовности; если навигатор уже готов,
// колбэк вызывается сразу.
func (n *ChatNavigator) OnReady(fn func()) {
	n.mu.Lock()
	if n.ready.Load() {
		n.mu.Unlock()
		fn()
		return
	}
	n.onReady = append(n.onReady, fn)
	n.mu.Unlock()
}

// SetReady помечает дерево навигации смонтированным и дёргает колбэки.
// Повторные вызовы — no-op.
func (n *ChatNavigator) SetReady() {
	if !n.ready.CompareAndSwap(false, true) {
		return
	}
	n.mu.Lock()
	fns := n.onReady
	n.onReady = nil
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Navigate отрисовывает экран в чате. Ошибка — если навигатор не готов,
// экран неизвестен или роль не даёт к нему доступа.
func (n *ChatNavigator) Navigate(screen string, params navigation.Params) error {
	if !n.ready.Load() {
		return fmt.Errorf("навигатор не готов (экран %q)", screen)
	}

	role := n.sess.RoleName()
	if need, ok := screenCaps[screen]; ok && !models.HasCapability(role, need) {
		return fmt.Errorf("экран %q недоступен роли %q", screen, role)
	}

	text, err := render(screen, params, n.sess)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ReplyMarkup = menu.GetRoleMenu(role)
	if _, err := n.send.Send(context.Background(), msg); err != nil {
		return err
	}
	return nil
}

// render строит текст экрана. Содержимое экранов — заглушки-сводки:
// полный набор экранов за бэкендом и в этом ядре не специфицирован.
func render(screen string, params navigation.Params, sess *session.Manager) (string, error) {
	switch screen {
	case "Dashboard":
		return fmt.Sprintf("🏠 %s\nРоль: %s", greeting(sess), sess.RoleName()), nil
	case "Task Management":
		// вложенный маршрут: params.screen + params.params.taskId
		inner, _ := params["screen"].(string)
		innerParams, _ := params["params"].(navigation.Params)
		switch inner {
		case navigation.ScreenTaskDetail:
			return fmt.Sprintf("🗂 Задача №%v", innerParams["taskId"]), nil
		case navigation.ScreenViewComment:
			return fmt.Sprintf("💬 Комментарии к задаче №%v", innerParams["taskId"]), nil
		case "":
			return "🗂 Задачи: список задач.", nil
		default:
			return "", fmt.Errorf("неизвестный вложенный экран %q", inner)
		}
	case "Attendance":
		return "📅 Посещаемость: календарь за текущий месяц.", nil
	case "Admissions":
		return "📝 Приём: заявки на зачисление.", nil
	case "Manage Teachers":
		return "👥 Учителя: список сотрудников.", nil
	case "Salary":
		return "💰 Зарплата: начисления за период.", nil
	case "Holidays":
		return "📆 Каникулы и праздники.", nil
	case "Child Rating":
		return "📊 Рейтинг ребёнка за период.", nil
	default:
		return "", fmt.Errorf("неизвестный экран %q", screen)
	}
}

func greeting(sess *session.Manager) string {
	if name := sess.User().Name(); name != "" {
		return "Добро пожаловать, " + name + "!"
	}
	return "Добро пожаловать!"
}
