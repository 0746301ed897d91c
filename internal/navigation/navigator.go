package navigation

// Params — вложенные параметры маршрута произвольной глубины.
type Params map[string]any

// Navigator — внешний навигационный примитив. Navigate возвращает ошибку,
// если дерево навигации ещё не смонтировано или маршрут неизвестен.
type Navigator interface {
	Navigate(screen string, params Params) error
	IsReady() bool
}

// Intent — отложенное намерение "перейти на экран X с параметрами Y".
type Intent struct {
	Screen string
	Params Params
}

// Экраны, на которые ведут уведомления. Цели вложены в стек Task Management.
const (
	ScreenTaskManagement = "Task Management"
	ScreenTaskDetail     = "TaskDetail"
	ScreenViewComment    = "ViewComment"
)
