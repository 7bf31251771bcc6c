package widget

import "time"

// Clock планирует отложенные вызовы. В тестах подменяется ручными часами.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// События активности, которые сбрасывают таймер бездействия
var activityEvents = map[string]bool{
	"mousedown":  true,
	"mousemove":  true,
	"keypress":   true,
	"scroll":     true,
	"touchstart": true,
}

// HandleMouseLeave обрабатывает уход курсора со страницы (exit intent).
// Срабатывает не более одного раза за монтирование.
func (w *Widget) HandleMouseLeave(clientY int) {
	w.mu.Lock()
	if !w.mounted || !w.settings.Features.ExitIntent || clientY > 0 || w.exitIntentShown {
		w.mu.Unlock()
		return
	}
	w.exitIntentShown = true
	w.mu.Unlock()

	w.opts.logger.Debug("exit intent detected")
	w.Open()
}

// HandleActivity сбрасывает таймер бездействия на событиях пользователя.
func (w *Widget) HandleActivity(kind string) {
	if !activityEvents[kind] {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.mounted || !w.inactivityEnabledLocked() {
		return
	}
	w.armInactivityLocked()
}

func (w *Widget) inactivityEnabledLocked() bool {
	return w.settings.Features.Inactivity && w.settings.Behavior.OpenOnInactivityMs > 0
}

// armInactivityLocked перезапускает таймер бездействия. Вызывать под w.mu.
func (w *Widget) armInactivityLocked() {
	w.stopInactivityLocked()
	w.inactivityGen++
	gen := w.inactivityGen
	d := time.Duration(w.settings.Behavior.OpenOnInactivityMs) * time.Millisecond
	w.inactivityTimer = w.opts.clock.AfterFunc(d, func() { w.fireInactivity(gen) })
}

func (w *Widget) stopInactivityLocked() {
	if w.inactivityTimer != nil {
		w.inactivityTimer.Stop()
		w.inactivityTimer = nil
	}
}

// syncInactivityLocked включает или выключает таймер после смены настроек.
func (w *Widget) syncInactivityLocked() {
	switch {
	case !w.inactivityEnabledLocked():
		w.stopInactivityLocked()
	case w.inactivityTimer == nil:
		w.armInactivityLocked()
	}
}

func (w *Widget) fireInactivity(gen int) {
	w.mu.Lock()
	if gen != w.inactivityGen || !w.mounted {
		w.mu.Unlock()
		return
	}
	// до следующей активности таймер не взводится
	w.inactivityTimer = nil
	w.mu.Unlock()

	w.opts.logger.Debug("inactivity timeout reached")
	w.Open()
}
