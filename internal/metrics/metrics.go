package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "handler_errors_total", Help: "Handler errors",
	})
	Logins = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "logins_total", Help: "Successful logins",
	})
	PushRegisterErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "push_register_errors_total", Help: "Failed push token registrations",
	})
	PushRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "push_registered_total", Help: "Successful push token registrations",
	})
	NavReplayAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "nav_replay_attempts_total", Help: "Deferred navigation replay attempts",
	})
	NavReplayExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "schoolapp", Name: "nav_replay_exhausted_total", Help: "Navigation intents dropped after retry cap",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "schoolapp", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		BotUpdates, HandlerErrors, Logins,
		PushRegisterErrors, PushRegistered,
		NavReplayAttempts, NavReplayExhausted, DBPing,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
