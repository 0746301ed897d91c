// Package notify — подписка на события платформы уведомлений.
// Вместо колбэков, регистрируемых на время жизни UI-эффекта, здесь явный
// интерфейс подписки с ручкой отписки: подписался при монтировании,
// обязан отписаться при демонтировании.
package notify

import "sync"

// Data — полезная нагрузка уведомления. Бэкенд кладёт сюда дискриминатор
// navigate_to и id сущности.
type Data struct {
	NavigateTo string `json:"navigate_to"`
	TaskID     string `json:"task_id"`
}

// Payload — непрозрачное уведомление платформы; ядро смотрит только в Data.
type Payload struct {
	Title string
	Body  string
	Data  Data
}

type Handler func(Payload)

// Platform — внешняя платформа уведомлений: два потока событий,
// "получено на переднем плане" и "пользователь тапнул".
type Platform interface {
	SubscribeReceived(h Handler) (unsubscribe func())
	SubscribeTapped(h Handler) (unsubscribe func())
}

// Hub — внутрипроцессная реализация Platform. Адаптеры (телеграм-колбэки,
// тестовые сценарии) публикуют события через Emit*.
type Hub struct {
	mu       sync.Mutex
	nextID   int
	received map[int]Handler
	tapped   map[int]Handler
}

func NewHub() *Hub {
	return &Hub{
		received: make(map[int]Handler),
		tapped:   make(map[int]Handler),
	}
}

func (h *Hub) SubscribeReceived(fn Handler) func() {
	return h.subscribe(h.received, fn)
}

func (h *Hub) SubscribeTapped(fn Handler) func() {
	return h.subscribe(h.tapped, fn)
}

func (h *Hub) subscribe(m map[int]Handler, fn Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	m[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(m, id)
	}
}

func (h *Hub) EmitReceived(p Payload) { h.emit(h.received, p) }

func (h *Hub) EmitTapped(p Payload) { h.emit(h.tapped, p) }

func (h *Hub) emit(m map[int]Handler, p Payload) {
	h.mu.Lock()
	handlers := make([]Handler, 0, len(m))
	for _, fn := range m {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()
	// вызываем вне мьютекса: хендлер может отписаться прямо из себя
	for _, fn := range handlers {
		fn(p)
	}
}
