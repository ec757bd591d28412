package histstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FileStore appends history records to a JSONL file. Each line is an object
// {"cmd": "...", "time": "<RFC3339>"}; malformed lines are skipped on load.
// Entries that are not valid UTF-8 also carry their exact bytes in "raw",
// base64 encoded. Lines have no length limit.
type FileStore struct {
	path  string
	limit int

	mu sync.Mutex
	// lines counts records in the file once known, -1 before.
	lines int
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, limit int) *FileStore {
	return &FileStore{path: path, limit: limit, lines: -1}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// LoadHistory reads the file. A missing file is an empty history.
func (f *FileStore) LoadHistory(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	f.lines = len(entries)
	return tail(entries, f.limit), nil
}

func (f *FileStore) read(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	entries := []string{}
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		if entry, ok := decodeRecord(line); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func decodeRecord(line []byte) (string, bool) {
	if len(bytes.TrimSpace(line)) == 0 || !gjson.ValidBytes(line) {
		return "", false
	}
	if raw := gjson.GetBytes(line, "raw"); raw.Type == gjson.String {
		b, err := base64.StdEncoding.DecodeString(raw.String())
		if err == nil {
			return string(b), true
		}
	}
	cmd := gjson.GetBytes(line, "cmd")
	if cmd.Type != gjson.String {
		return "", false
	}
	return cmd.String(), true
}

// AppendHistory appends one record. When a limit is set and the file has
// grown past twice the limit, it is compacted to the newest entries.
func (f *FileStore) AppendHistory(ctx context.Context, entry string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	record, err := encodeRecord(entry, time.Now())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(record); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	if f.lines >= 0 {
		f.lines++
	}
	if f.limit > 0 && f.lines > 2*f.limit {
		return f.compact(ctx)
	}
	return nil
}

// compact rewrites the file with only the newest limit entries. Must be
// called with mu held.
func (f *FileStore) compact(ctx context.Context) error {
	entries, err := f.read(ctx)
	if err != nil {
		return err
	}
	entries = tail(entries, f.limit)

	var buf bytes.Buffer
	now := time.Now()
	for _, entry := range entries {
		record, err := encodeRecord(entry, now)
		if err != nil {
			return err
		}
		buf.Write(record)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return err
	}
	f.lines = len(entries)
	return nil
}

// Clear removes the history file.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	f.lines = 0
	return nil
}

// Close is a no-op; the file is opened per append.
func (f *FileStore) Close() error {
	return nil
}

func encodeRecord(entry string, at time.Time) ([]byte, error) {
	record, err := sjson.SetBytes(nil, "cmd", entry)
	if err != nil {
		return nil, err
	}
	record, err = sjson.SetBytes(record, "time", at.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	if !utf8.ValidString(entry) {
		record, err = sjson.SetBytes(record, "raw", base64.StdEncoding.EncodeToString([]byte(entry)))
		if err != nil {
			return nil, err
		}
	}
	return append(record, '\n'), nil
}

var _ Store = (*FileStore)(nil)
