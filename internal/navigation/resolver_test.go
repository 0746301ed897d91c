package navigation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/school-app-bot/internal/notify"
)

type fakeNavigator struct {
	mu    sync.Mutex
	err   error
	calls []Intent
	ready bool
}

func (f *fakeNavigator) Navigate(screen string, params Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Intent{Screen: screen, Params: params})
	return f.err
}

func (f *fakeNavigator) IsReady() bool { return f.ready }

func (f *fakeNavigator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// syncAfter — замена time.AfterFunc: запоминает задержки и исполняет
// колбэк синхронно.
func syncAfter(delays *[]time.Duration) func(time.Duration, func()) {
	return func(d time.Duration, fn func()) {
		*delays = append(*delays, d)
		fn()
	}
}

// queueAfter — замена time.AfterFunc: копит колбэки, не исполняя их.
func queueAfter(queue *[]func()) func(time.Duration, func()) {
	return func(_ time.Duration, fn func()) {
		*queue = append(*queue, fn)
	}
}

func tapPayload(target, taskID string) notify.Payload {
	return notify.Payload{Data: notify.Data{NavigateTo: target, TaskID: taskID}}
}

func TestCaptureIntent_LastWins(t *testing.T) {
	nav := &fakeNavigator{}
	r := NewResolver(nav, nil)
	var queued []func()
	r.after = queueAfter(&queued)

	r.CaptureIntent(tapPayload(ScreenTaskDetail, "1"))
	r.CaptureIntent(tapPayload(ScreenViewComment, "2"))

	p := r.Pending()
	if p == nil {
		t.Fatal("ожидали незанятое намерение в слоте")
	}
	if p.Screen != ScreenTaskManagement {
		t.Fatalf("ожидали экран %q, получили %q", ScreenTaskManagement, p.Screen)
	}
	if inner, _ := p.Params["screen"].(string); inner != ScreenViewComment {
		t.Fatalf("новое намерение должно перетереть старое: ожидали %q, получили %q", ScreenViewComment, inner)
	}
	innerParams, _ := p.Params["params"].(Params)
	if got := innerParams["taskId"]; got != "2" {
		t.Fatalf("ожидали taskId=2, получили %v", got)
	}
}

func TestCaptureIntent_UnknownTargetIsNoop(t *testing.T) {
	nav := &fakeNavigator{}
	r := NewResolver(nav, nil)
	var queued []func()
	r.after = queueAfter(&queued)

	t.Run("empty_slot_stays_empty", func(t *testing.T) {
		r.CaptureIntent(tapPayload("Unknown", "5"))
		if r.Pending() != nil {
			t.Fatal("неизвестная цель не должна занимать слот")
		}
	})

	t.Run("existing_intent_untouched", func(t *testing.T) {
		r.CaptureIntent(tapPayload(ScreenTaskDetail, "7"))
		before := r.Pending()
		r.CaptureIntent(tapPayload("Unknown", "9"))
		if r.Pending() != before {
			t.Fatal("неизвестная цель не должна трогать существующее намерение")
		}
	})

	t.Run("known_target_without_task_id_ignored", func(t *testing.T) {
		r2 := NewResolver(nav, nil)
		r2.after = queueAfter(&queued)
		r2.CaptureIntent(tapPayload(ScreenTaskDetail, ""))
		if r2.Pending() != nil {
			t.Fatal("цель без task_id не должна занимать слот")
		}
	})
}

func TestReplay_RetryBackoffBound(t *testing.T) {
	nav := &fakeNavigator{err: errors.New("навигатор не готов")}
	r := NewResolver(nav, nil)
	var delays []time.Duration
	r.after = syncAfter(&delays)

	r.CaptureIntent(tapPayload(ScreenTaskDetail, "42"))

	if got := nav.callCount(); got != 5 {
		t.Fatalf("ожидали ровно 5 попыток, получили %d", got)
	}
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		5000 * time.Millisecond,
		5000 * time.Millisecond,
	}
	if len(delays) != len(want) {
		t.Fatalf("ожидали %d задержек, получили %d (%v)", len(want), len(delays), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("задержка №%d: ожидали %v, получили %v", i+1, want[i], delays[i])
		}
	}
	if r.Pending() != nil {
		t.Fatal("после исчерпания попыток намерение должно быть сброшено")
	}

	// слот пуст — поздний onReady ничего не доигрывает
	r.OnNavigatorReady()
	if got := nav.callCount(); got != 5 {
		t.Fatalf("после исчерпания не должно быть новых попыток, всего %d", got)
	}
}

func TestReplay_SuccessClearsPending(t *testing.T) {
	nav := &fakeNavigator{}
	r := NewResolver(nav, nil)
	var delays []time.Duration
	r.after = syncAfter(&delays)

	r.CaptureIntent(tapPayload(ScreenViewComment, "3"))

	if got := nav.callCount(); got != 1 {
		t.Fatalf("ожидали одну попытку, получили %d", got)
	}
	if r.Pending() != nil {
		t.Fatal("после успешного перехода слот должен быть пуст")
	}
	nav.mu.Lock()
	call := nav.calls[0]
	nav.mu.Unlock()
	if call.Screen != ScreenTaskManagement {
		t.Fatalf("ожидали переход в %q, получили %q", ScreenTaskManagement, call.Screen)
	}
}

func TestOnNavigatorReady_ReplaysColdStartIntent(t *testing.T) {
	nav := &fakeNavigator{err: errors.New("дерево ещё не смонтировано")}
	r := NewResolver(nav, nil)

	// тап пришёл до готовности навигатора: копим попытки, не исполняя
	var queued []func()
	r.after = queueAfter(&queued)
	r.CaptureIntent(tapPayload(ScreenTaskDetail, "11"))
	if r.Pending() == nil {
		t.Fatal("намерение должно ждать готовности навигатора")
	}

	// навигатор смонтировался
	nav.mu.Lock()
	nav.err = nil
	nav.mu.Unlock()
	var delays []time.Duration
	r.after = syncAfter(&delays)
	r.OnNavigatorReady()

	if got := nav.callCount(); got == 0 {
		t.Fatal("onReady должен доиграть отложенное намерение")
	}
	if r.Pending() != nil {
		t.Fatal("после доигрывания слот должен быть пуст")
	}

	// повторный onReady — no-op
	before := nav.callCount()
	r.OnNavigatorReady()
	if nav.callCount() != before {
		t.Fatal("onReady одноразовый: повтор не должен ничего доигрывать")
	}
}
