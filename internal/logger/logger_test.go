package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&buf, level)
	l.now = func() time.Time { return time.Date(2024, 1, 1, 9, 5, 7, 0, time.UTC) }
	return l, &buf
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)
	l.Warnf("cannot read %s", "src/app.js")

	assert.Equal(t, "[09:05:07] [WARN] cannot read src/app.js\n", buf.String())
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)
	l.Tracef("t")
	l.Debugf("d")
	l.Infof("i")
	l.Warnf("w")
	l.Errorf("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] w")
	assert.Contains(t, lines[1], "[ERROR] e")
}

func TestLogger_NoColorForBuffers(t *testing.T) {
	l, buf := newTestLogger(LevelTrace)
	l.Debugf("plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestLogger_Discard(t *testing.T) {
	l := Discard()
	l.Errorf("dropped")
	assert.False(t, l.Enabled(LevelError))

	var nilLogger *Logger
	nilLogger.Infof("must not panic")
}

func TestLogger_Concurrent(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Infof("message %d", n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "\n"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"trace", LevelTrace, true},
		{"DEBUG", LevelDebug, true},
		{" info ", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"", LevelInfo, false},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "ERROR", LevelError.String())
}
