package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Context is the persisted CLI selection: the room `chatroom` opens when no
// room id is given.
type Context struct {
	RoomID string `yaml:"room,omitempty"`
	// RoomName is the display label captured when the room was selected.
	RoomName  string    `yaml:"room_name,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no room is selected.
func (c *Context) IsEmpty() bool {
	return c == nil || strings.TrimSpace(c.RoomID) == ""
}

// SetRoom selects a room.
func (c *Context) SetRoom(id, name string) {
	c.RoomID = strings.TrimSpace(id)
	c.RoomName = strings.TrimSpace(name)
	c.UpdatedAt = time.Now().UTC()
}

// Clear removes the selection.
func (c *Context) Clear() {
	c.RoomID = ""
	c.RoomName = ""
	c.UpdatedAt = time.Now().UTC()
}

func (c *Context) String() string {
	if c.IsEmpty() {
		return "(no room selected)"
	}
	if c.RoomName != "" {
		return fmt.Sprintf("room:%s (%s)", c.RoomName, shortID(c.RoomID))
	}
	return "room:" + c.RoomID
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ContextStore manages loading and saving context.
type ContextStore struct {
	path string
	mu   sync.RWMutex
}

// NewContextStore creates a context store at path, or at
// ~/.config/chatroom/context.yaml when path is empty.
func NewContextStore(path string) *ContextStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "chatroom", "context.yaml")
	}
	return &ContextStore{path: path}
}

// ContextStoreFor places the context file in the configured config dir.
func ContextStoreFor(cfg *Config) *ContextStore {
	if cfg == nil || cfg.Global.ConfigDir == "" {
		return NewContextStore("")
	}
	return NewContextStore(filepath.Join(cfg.Global.ConfigDir, "context.yaml"))
}

// Path returns the context file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Load reads the context from disk.
// Returns an empty context if the file doesn't exist.
func (s *ContextStore) Load() (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := &Context{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ctx, nil
		}
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	if err := yaml.Unmarshal(data, ctx); err != nil {
		return nil, fmt.Errorf("failed to parse context file: %w", err)
	}

	return ctx, nil
}

// Save writes the context to disk.
func (s *ContextStore) Save(ctx *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	data, err := yaml.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("failed to serialize context: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	return nil
}

// Clear removes the context file.
func (s *ContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove context file: %w", err)
	}
	return nil
}
