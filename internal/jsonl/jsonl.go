// Package jsonl reads and writes line-delimited JSON files, the exchange
// format between pipeline stages.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/corpusmill/corpusmill/internal/logger"
)

// ReadFile decodes every line of path into T. Malformed lines are
// skipped, not fatal; the second return value is how many were skipped.
func ReadFile[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var (
		records []T
		skipped int
	)

	scanner := bufio.NewScanner(f)
	// Documents can be large; default 64KB token limit is not enough.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Warn("skipping malformed line", "line", line, "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read input: %w", err)
	}

	return records, skipped, nil
}

// Writer appends one JSON object per line and flushes after every
// record, so a killed run loses at most the in-flight record.
type Writer struct {
	f  *os.File
	bw *bufio.Writer
}

// Create opens path for writing. It fails if the file already exists;
// stage outputs are write-once.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return &Writer{f: f, bw: bufio.NewWriter(f)}, nil
}

// Append marshals v and writes it as a single line.
func (w *Writer) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.bw.Write(data); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
