package menu

import (
	"github.com/Spok95/school-app-bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Кнопка меню на каждую возможность роли. Меню и набор экранов строятся
// из одной таблицы возможностей — никакого дублирования ролевой логики
// по хендлерам.
var capButtons = map[models.Capability]string{
	models.CapDashboard:      "🏠 Главная",
	models.CapTasks:          "🗂 Задачи",
	models.CapAttendance:     "📅 Посещаемость",
	models.CapAdmissions:     "📝 Приём",
	models.CapManageTeachers: "👥 Учителя",
	models.CapSalary:         "💰 Зарплата",
	models.CapHolidays:       "📆 Каникулы",
	models.CapChildRating:    "📊 Рейтинг ребёнка",
	models.CapAuditExport:    "📥 Экспорт журнала",
}

// Какой экран открывает кнопка. Экспорт — действие, не экран, его
// обрабатывает диспетчер отдельно.
var buttonScreens = map[string]string{
	"🏠 Главная":         "Dashboard",
	"🗂 Задачи":          "Task Management",
	"📅 Посещаемость":    "Attendance",
	"📝 Приём":           "Admissions",
	"👥 Учителя":         "Manage Teachers",
	"💰 Зарплата":        "Salary",
	"📆 Каникулы":        "Holidays",
	"📊 Рейтинг ребёнка": "Child Rating",
}

const ExportButton = "📥 Экспорт журнала"

// GetRoleMenu возвращает клавиатуру по роли пользователя: по две кнопки в ряд.
func GetRoleMenu(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	caps := models.Capabilities(role)
	if len(caps) == 0 {
		return tgbotapi.NewReplyKeyboard() // пустое меню
	}

	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range caps {
		label, ok := capButtons[c]
		if !ok {
			continue
		}
		row = append(row, tgbotapi.NewKeyboardButton(label))
		if len(row) == 2 {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// ScreenForButton — экран, который открывает кнопка меню ("" — не кнопка экрана).
func ScreenForButton(text string) string {
	return buttonScreens[text]
}
