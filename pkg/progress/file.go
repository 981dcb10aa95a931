package progress

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/questwork/pkg/debug"
	"github.com/vanderheijden86/questwork/pkg/metrics"
)

// FileStore keeps all keys in a single JSON object file. Every write
// rewrites the file through a temp file and a rename, so readers never see
// a partial document.
type FileStore struct {
	mu     sync.Mutex
	path   string
	data   map[string]json.RawMessage
	closed bool
}

// OpenFileStore opens the store at path. A missing file is an empty store;
// an unparseable file is logged and treated as empty.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Refresh re-reads the backing file.
func (s *FileStore) Refresh() error {
	data, err := readObject(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func readObject(path string) (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, fmt.Errorf("reading progress file: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	data := make(map[string]json.RawMessage)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		debug.Log("progress file %s is corrupt, starting empty: %v", path, err)
		return make(map[string]json.RawMessage), nil
	}
	for k, v := range data {
		compact, err := compactValue(v)
		if err != nil {
			debug.Log("progress file %s: dropping key %s: %v", path, k, err)
			delete(data, k)
			continue
		}
		data[k] = compact
	}
	return data, nil
}

// compactValue returns v without insignificant whitespace. Values are kept
// compact in memory and on disk so Get returns the bytes Set stored.
func compactValue(v []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

// encodeObject writes data as a JSON object with one sorted key per line
// and each value on that line as stored.
func encodeObject(data map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range sortedKeys(data) {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(data[k])
	}
	if len(data) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	return s.SetMany(map[string][]byte{key: value})
}

func (s *FileStore) SetMany(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := make(map[string]json.RawMessage, len(s.data)+len(values))
	for k, v := range s.data {
		next[k] = v
	}
	for k, v := range values {
		compact, err := compactValue(v)
		if err != nil {
			return fmt.Errorf("value for %q is not valid JSON: %w", k, err)
		}
		next[k] = compact
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.data[key]; !ok {
		return nil
	}

	next := make(map[string]json.RawMessage, len(s.data))
	for k, v := range s.data {
		if k != key {
			next[k] = v
		}
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return sortedKeys(s.data), nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// write must be called with s.mu held.
func (s *FileStore) write(data map[string]json.RawMessage) error {
	defer metrics.Timer(metrics.StoreWrite)()

	out, err := encodeObject(data)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating progress directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
