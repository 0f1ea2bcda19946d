package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Kairi/ask/internal/chat"
	"github.com/Kairi/ask/internal/config"
)

// Store keeps conversations as indented JSON files in Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at the user's history directory.
func NewStore() (*Store, error) {
	dir, err := config.DefaultHistoryDir()
	if err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// ensureDir ensures the history directory exists and returns its path.
func (s *Store) ensureDir() (string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}
	return s.Dir, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid conversation name %q", name)
	}
	return filepath.Join(s.Dir, name+".json"), nil
}

// Save writes messages under name and returns the name used. An empty name
// gets a random one.
func (s *Store) Save(name string, messages []chat.Message) (string, error) {
	if name == "" {
		name = uuid.NewString()
	}
	filePath, err := s.path(name)
	if err != nil {
		return "", err
	}
	if _, err := s.ensureDir(); err != nil {
		return "", err
	}
	// a failed save leaves any existing conversation untouched
	file, err := os.CreateTemp(s.Dir, name+"-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create conversation file: %w", err)
	}
	tmpPath := file.Name()
	if err := writeMessages(file, messages); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to store conversation file: %w", err)
	}
	return name, nil
}

// writeMessages encodes messages into file and closes it.
func writeMessages(file *os.File, messages []chat.Message) error {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(messages); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close conversation file: %w", err)
	}
	return nil
}

// Load reads the conversation saved under name.
func (s *Store) Load(name string) ([]chat.Message, error) {
	filePath, err := s.path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation file: %w", err)
	}
	defer file.Close()

	var messages []chat.Message
	if err := json.NewDecoder(file).Decode(&messages); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	return messages, nil
}

// List returns the saved conversation names, sorted.
func (s *Store) List() ([]string, error) {
	historyDir, err := s.ensureDir()
	if err != nil {
		return nil, err
	}

	files, err := os.ReadDir(historyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var threads []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".json") {
			threads = append(threads, strings.TrimSuffix(file.Name(), ".json"))
		}
	}
	sort.Strings(threads)
	return threads, nil
}
