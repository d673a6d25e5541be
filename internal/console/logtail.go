package console

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logReadMsg carries a log line and the file offset for the next read.
type logReadMsg struct {
	line   string
	offset int64
}

// readChunk bounds a single read. A line longer than this is delivered in
// pieces.
const readChunk = 64 * 1024

// tailLog returns a tea.Cmd that waits for the log file to appear, then reads
// the first new line from the end. Subsequent lines are read via nextLogLine.
func tailLog(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		var startOffset int64
		for {
			info, err := os.Stat(path)
			if err == nil {
				startOffset = info.Size()
				break
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(500 * time.Millisecond):
			}
		}
		return readFromOffset(ctx, path, startOffset)
	}
}

// nextLogLine returns a tea.Cmd that waits for the next log line at the given
// offset.
func nextLogLine(ctx context.Context, path string, offset int64) tea.Cmd {
	return func() tea.Msg {
		return readFromOffset(ctx, path, offset)
	}
}

// readFromOffset polls the file until a complete line is available at offset.
// The server truncates its log on every start, so a file shorter than offset
// is read again from the beginning.
func readFromOffset(ctx context.Context, path string, offset int64) tea.Msg {
	for {
		line, next, ok := readLine(path, offset)
		if ok {
			return logReadMsg{line: line, offset: next}
		}
		offset = next
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// readLine returns the line starting at offset and the offset after it. When
// no complete line is available yet ok is false and next is where to retry.
func readLine(path string, offset int64) (line string, next int64, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", offset, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", offset, false
	}
	if info.Size() < offset {
		offset = 0
	}

	buf := make([]byte, readChunk)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return "", offset, false
	}
	buf = buf[:n]

	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		return string(bytes.TrimRight(buf[:i], "\r")), offset + int64(i) + 1, true
	}
	if n == readChunk {
		return string(buf), offset + int64(n), true
	}
	return "", offset, false
}
