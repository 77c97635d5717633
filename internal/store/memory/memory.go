// Package memory provides an in-process implementation of the store
// interface. It backs tests and local development, and reproduces the
// hosted store's semantics: whole-node replacement, empty nodes pruned,
// snapshot delivery on every relevant change.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"church-attendance-backend/internal/store"

	"github.com/google/uuid"
)

// Memory is an in-memory path-addressed tree store
type Memory struct {
	mu     sync.RWMutex
	root   map[string]interface{}
	subs   map[int]*subscription
	nextID int
}

// New creates an empty in-memory store
func New() *Memory {
	return &Memory{
		root: make(map[string]interface{}),
		subs: make(map[int]*subscription),
	}
}

type subscription struct {
	owner *Memory
	id    int
	path  string
	ch    chan json.RawMessage
}

func (s *subscription) Snapshots() <-chan json.RawMessage {
	return s.ch
}

func (s *subscription) Close() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if _, ok := s.owner.subs[s.id]; !ok {
		return
	}
	delete(s.owner.subs, s.id)
	close(s.ch)
}

// Get reads the node at path; a missing node yields (nil, nil)
func (m *Memory) Get(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotAt(path)
}

// Set replaces the node at path with v. Writing nil or an empty map
// deletes the node, as the hosted store does.
func (m *Memory) Set(_ context.Context, path string, v interface{}) error {
	node, err := normalize(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAt(path, node)
	m.notify(path)
	return nil
}

// Update applies several path writes as one batch; nil values delete
func (m *Memory) Update(_ context.Context, values map[string]interface{}) error {
	normalized := make(map[string]interface{}, len(values))
	for path, v := range values {
		node, err := normalize(v)
		if err != nil {
			return err
		}
		normalized[path] = node
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for path, node := range normalized {
		m.setAt(path, node)
	}
	for path := range normalized {
		m.notify(path)
	}
	return nil
}

// Remove deletes the node at path and everything below it
func (m *Memory) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAt(path, nil)
	m.notify(path)
	return nil
}

// Push creates a child of path with a generated opaque id
func (m *Memory) Push(_ context.Context, path string, v interface{}) (string, error) {
	node, err := normalize(v)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAt(path+"/"+id, node)
	m.notify(path)
	return id, nil
}

// QueryByField returns the children of path whose field equals value
func (m *Memory) QueryByField(_ context.Context, path, field, value string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node := m.nodeAt(path)
	children, ok := node.(map[string]interface{})
	if !ok {
		return map[string]json.RawMessage{}, nil
	}

	results := make(map[string]json.RawMessage)
	for id, child := range children {
		fields, ok := child.(map[string]interface{})
		if !ok {
			continue
		}
		if s, ok := fields[field].(string); ok && s == value {
			raw, err := json.Marshal(child)
			if err != nil {
				return nil, err
			}
			results[id] = raw
		}
	}
	return results, nil
}

// Subscribe starts a snapshot feed for the node at path. The current state
// is delivered before Subscribe returns a usable channel.
func (m *Memory) Subscribe(path string) (store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &subscription{
		owner: m,
		id:    m.nextID,
		path:  path,
		ch:    make(chan json.RawMessage, 1),
	}
	m.nextID++
	m.subs[sub.id] = sub

	snap, err := m.snapshotAt(path)
	if err != nil {
		return nil, err
	}
	sub.ch <- snap
	return sub, nil
}

// notify delivers fresh snapshots to every subscription whose path is
// related to the changed one. Callers hold the write lock, so deliveries
// are serialized and the coalescing drain below cannot race.
func (m *Memory) notify(changed string) {
	for _, sub := range m.subs {
		if !related(changed, sub.path) {
			continue
		}
		snap, err := m.snapshotAt(sub.path)
		if err != nil {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
			// Coalesce: replace the undelivered snapshot with the latest
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snap
		}
	}
}

// related reports whether a change at path a is visible from path b,
// i.e. one is an ancestor of (or equal to) the other.
func related(a, b string) bool {
	return a == b ||
		strings.HasPrefix(a, b+"/") ||
		strings.HasPrefix(b, a+"/")
}

func (m *Memory) snapshotAt(path string) (json.RawMessage, error) {
	node := m.nodeAt(path)
	if node == nil {
		return nil, nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("marshaling node at %s: %w", path, err)
	}
	return raw, nil
}

func (m *Memory) nodeAt(path string) interface{} {
	var node interface{} = m.root
	for _, part := range splitPath(path) {
		children, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node, ok = children[part]
		if !ok {
			return nil
		}
	}
	return node
}

// setAt writes node at path, creating intermediate maps as needed. A nil
// node deletes the entry and prunes parents left empty, matching the
// hosted store's treatment of empty nodes as nonexistent.
func (m *Memory) setAt(path string, node interface{}) {
	parts := splitPath(path)
	if len(parts) == 0 {
		if children, ok := node.(map[string]interface{}); ok {
			m.root = children
		} else {
			m.root = make(map[string]interface{})
		}
		return
	}

	parents := make([]map[string]interface{}, 0, len(parts))
	current := m.root
	for _, part := range parts[:len(parts)-1] {
		parents = append(parents, current)
		child, ok := current[part].(map[string]interface{})
		if !ok {
			if node == nil {
				return // nothing to delete
			}
			child = make(map[string]interface{})
			current[part] = child
		}
		current = child
	}

	leaf := parts[len(parts)-1]
	if node == nil {
		delete(current, leaf)
	} else {
		current[leaf] = node
	}

	// Prune now-empty intermediate maps bottom-up
	for i := len(parents) - 1; i >= 0; i-- {
		child, ok := parents[i][parts[i]].(map[string]interface{})
		if ok && len(child) == 0 {
			delete(parents[i], parts[i])
		}
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// normalize converts v to the generic JSON tree representation used
// internally, so stored nodes never alias caller-owned values. Empty maps
// normalize to nil: the hosted store does not represent empty nodes.
func normalize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}
	var node interface{}
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if children, ok := node.(map[string]interface{}); ok && len(children) == 0 {
		return nil, nil
	}
	return node, nil
}
