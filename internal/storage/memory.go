package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is a map-backed Storage for tests and throwaway environments.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	writes  map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		writes:  make(map[string]int),
	}
}

func (m *Memory) Open(_ context.Context, p string) (io.ReadCloser, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[clean]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Create(_ context.Context, p string) (io.WriteCloser, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	return &bufferedWriter{commit: func(data []byte) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.objects[clean] = data
		m.writes[clean]++
		return nil
	}}, nil
}

func (m *Memory) Exists(_ context.Context, p string) (bool, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[clean]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, p string) error {
	clean, err := CleanPath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, clean)
	return nil
}

// Writes reports how many times p has been written.
func (m *Memory) Writes(p string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[p]
}

// bufferedWriter collects a whole object and hands it to commit on Close.
// Object stores take complete bodies, so the replace is atomic there too.
type bufferedWriter struct {
	buf    bytes.Buffer
	commit func([]byte) error
	closed bool
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("storage: write after close")
	}
	return w.buf.Write(b)
}

func (w *bufferedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.commit(w.buf.Bytes())
}
