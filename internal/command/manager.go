package command

import (
	"fmt"
	"sync"
)

// Entry is a command registered in a Manager with its registration extras.
type Entry struct {
	Command *Command
	Extra   map[string]any
}

// Manager records every declared command.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]*Entry)}
}

// Register records cmd. Extra is merged over the command's Meta.Extra.
// It panics when a command of the same name exists in the namespace.
func (m *Manager) Register(cmd *Command, extra map[string]any) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cmd.Path()
	if _, dup := m.entries[key]; dup {
		panic(fmt.Sprintf("command %s already registered", key))
	}
	merged := cmd.Meta().Extra
	if merged == nil {
		merged = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		merged[k] = v
	}
	e := &Entry{Command: cmd, Extra: merged}
	m.entries[key] = e
	m.order = append(m.order, key)
	return e
}

// Unregister removes the command at path and reports whether it existed.
func (m *Manager) Unregister(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; !ok {
		return false
	}
	delete(m.entries, path)
	for i, k := range m.order {
		if k == path {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *Manager) Get(path string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	return e, ok
}

// Entries lists the commands in registration order. An empty namespace
// lists every namespace.
func (m *Manager) Entries(namespace string) []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, 0, len(m.order))
	for _, k := range m.order {
		e := m.entries[k]
		if namespace != "" && e.Command.Namespace() != namespace {
			continue
		}
		out = append(out, e)
	}
	return out
}
