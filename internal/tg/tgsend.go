package tg

import (
	"context"
	"strings"
	"time"

	"github.com/Spok95/school-app-bot/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "message is not modified") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	return false
}

// Sender — обёртка над Bot API: глобальный лимит исходящих (телеграм режет
// примерно на 30 msg/s) плюс отправка системных ошибок в Sentry.
type Sender struct {
	bot *tgbotapi.BotAPI
	lim *rate.Limiter
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{
		bot: bot,
		lim: rate.NewLimiter(rate.Every(time.Second/25), 5),
	}
}

func (s *Sender) Send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	m, err := s.bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func (s *Sender) Request(ctx context.Context, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return nil, err
	}
	r, err := s.bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}
