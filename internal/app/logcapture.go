package app

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2/data/binding"
)

const (
	logDebounceInterval = 150 * time.Millisecond
	logLineLimit        = 300
)

// logCapture keeps the tail of the log stream and mirrors it into a binding.
// It is handed to the zap logger as an extra sink.
type logCapture struct {
	binding binding.String
	limit   int

	mu    sync.Mutex
	lines []string

	updateCh chan struct{}
	stopCh   chan struct{}
}

func newLogCapture(b binding.String, limit int) *logCapture {
	if limit <= 0 {
		limit = logLineLimit
	}
	return &logCapture{binding: b, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	l.mu.Lock()
	for _, part := range strings.Split(text, "\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	l.mu.Unlock()

	if l.updateCh == nil {
		l.flush()
		return len(p), nil
	}
	select {
	case l.updateCh <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer.
func (l *logCapture) Sync() error {
	l.flush()
	return nil
}

// Text returns the captured lines joined by newlines.
func (l *logCapture) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func (l *logCapture) flush() {
	_ = l.binding.Set(l.Text())
}

// start coalesces bursts of writes into one binding update per interval.
func (l *logCapture) start() {
	if l.updateCh != nil {
		return
	}
	l.updateCh = make(chan struct{}, 1)
	l.stopCh = make(chan struct{})
	go l.loop()
}

func (l *logCapture) stop() {
	if l.stopCh != nil {
		close(l.stopCh)
	}
}

func (l *logCapture) loop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-l.stopCh:
			timer.Stop()
			l.flush()
			return
		case <-l.updateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			l.flush()
		}
	}
}
