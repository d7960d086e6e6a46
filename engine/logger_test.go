package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerRingBuffer(t *testing.T) {
	l := NewLogger("", 3)
	defer l.Close()

	for i := 1; i <= 5; i++ {
		l.Write(fmt.Sprintf("line %d", i))
	}

	got := l.Lines()
	want := []string{"line 3", "line 4", "line 5"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
	if l.ReadAll() != "line 3\nline 4\nline 5\n" {
		t.Errorf("ReadAll() = %q", l.ReadAll())
	}
}

func TestLoggerAppendTimestamp(t *testing.T) {
	l := NewLogger("", 10)
	defer l.Close()

	ts := time.Date(2024, 1, 2, 13, 4, 5, 0, time.Local)
	l.Append(ts, "[NET] UDP bound at 127.0.0.1:9000")

	if got := l.Lines(); len(got) != 1 || got[0] != "[13:04:05] [NET] UDP bound at 127.0.0.1:9000" {
		t.Errorf("Lines() = %q", got)
	}
}

func TestLoggerClear(t *testing.T) {
	l := NewLogger("", 4)
	defer l.Close()

	l.Write("a")
	l.Write("b")
	l.Clear()
	if l.Len() != 0 || l.ReadAll() != "" {
		t.Fatalf("after Clear: Len=%d ReadAll=%q", l.Len(), l.ReadAll())
	}
	l.Write("c")
	if got := l.Lines(); len(got) != 1 || got[0] != "c" {
		t.Errorf("Lines() = %v, want [c]", got)
	}
}

func TestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	l := NewLogger(path, 10)
	l.Write("first")
	l.Write("second")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("file content = %q", data)
	}

	// Writes after Close are dropped, not panics.
	l.Write("late")
	l.Close()
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Write("x")
	l.Append(time.Now(), "x")
	l.Clear()
	l.Close()
	if l.Lines() != nil || l.Len() != 0 {
		t.Error("nil logger should be empty")
	}
}
