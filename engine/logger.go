package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultLogLines      = 1000
	defaultBatchSize     = 10
	defaultFlushInterval = 100 * time.Millisecond
	timestampLayout      = "15:04:05"
)

// Logger keeps the last capacity lines in memory and, when given a path,
// mirrors every line to a file in batches. It backs the log and packet panes
// of the sinks.
type Logger struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	head     int
	count    int

	filePath string
	file     *os.File
	ch       chan string
	done     chan struct{}
	closed   bool
}

func NewLogger(filePath string, capacity int) *Logger {
	if capacity <= 0 {
		capacity = defaultLogLines
	}

	l := &Logger{
		lines:    make([]string, capacity),
		capacity: capacity,
		filePath: filePath,
		ch:       make(chan string, 100),
		done:     make(chan struct{}),
	}

	if err := l.openFile(); err != nil || l.file == nil {
		close(l.done)
		return l
	}

	go l.writer()

	return l
}

func (l *Logger) openFile() error {
	if l.filePath == "" {
		return nil
	}

	if dir := filepath.Dir(l.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Append stores line prefixed with the wall-clock time of ts.
func (l *Logger) Append(ts time.Time, line string) {
	l.Write("[" + ts.Format(timestampLayout) + "] " + line)
}

func (l *Logger) Write(msg string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.lines[l.head] = msg
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}

	if l.file == nil {
		return
	}
	// The file copy is best effort; a slow disk must not stall the sink.
	select {
	case l.ch <- msg:
	default:
	}
}

// Lines returns the buffered lines, oldest first.
func (l *Logger) Lines() []string {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if l.count >= l.capacity {
		start = l.head
	}

	out := make([]string, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.lines[(start+i)%l.capacity])
	}
	return out
}

func (l *Logger) ReadAll() string {
	lines := l.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (l *Logger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Clear drops the in-memory lines. Lines already written to the file stay.
func (l *Logger) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.lines {
		l.lines[i] = ""
	}
	l.head = 0
	l.count = 0
}

func (l *Logger) writer() {
	defer close(l.done)

	batch := make([]string, 0, defaultBatchSize)
	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		var sb strings.Builder
		for _, msg := range batch {
			sb.WriteString(msg)
			sb.WriteByte('\n')
		}
		l.file.WriteString(sb.String())
		batch = batch[:0]
	}

	for {
		select {
		case msg, ok := <-l.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, msg)
			if len(batch) >= defaultBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close flushes pending lines and closes the file.
func (l *Logger) Close() {
	if l == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()

	<-l.done
	if l.file != nil {
		l.file.Close()
	}
}
