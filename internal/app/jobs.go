package app

import (
	"context"
	"time"

	"github.com/Spok95/school-app-bot/internal/audit"
	"github.com/Spok95/school-app-bot/internal/jobs"
)

const auditRetention = 90 * 24 * time.Hour

// RegisterJobs — фоновые задачи хоста: периодическая пере-регистрация
// push-токенов (регистрация идемпотентна, пересылать безопасно) и чистка
// журнала событий.
func (a *App) RegisterJobs(r *jobs.Runner) {
	r.Every(24*time.Hour, "push_reregister", func(ctx context.Context) error {
		var lastErr error
		for _, d := range a.Devices() {
			if !d.Session.IsAuthenticated() {
				continue
			}
			if err := d.Registrar.RegisterWithBackend(ctx, d.Session.UserID()); err != nil {
				a.log.Warnw("фоновая пере-регистрация токена не удалась",
					"chat_id", d.ChatID, "err", err)
				lastErr = err
			}
		}
		return lastErr
	})

	r.Every(24*time.Hour, "audit_prune", func(ctx context.Context) error {
		n, err := audit.Prune(ctx, a.db, auditRetention)
		if err != nil {
			return err
		}
		if n > 0 {
			a.log.Infow("журнал событий подчищен", "deleted", n)
		}
		return nil
	})
}
