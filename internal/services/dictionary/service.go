package dictionary

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/storage"
)

// Service provides per-category word validation
type Service struct {
	storage storage.Storage

	mu         sync.RWMutex
	categories map[string]map[string]struct{}
}

// New creates a new dictionary Service
func New(storage storage.Storage) *Service {
	return &Service{
		storage:    storage,
		categories: make(map[string]map[string]struct{}),
	}
}

// LoadFromStorage loads one category's word list from storage
func (s *Service) LoadFromStorage(ctx context.Context, category string) error {
	words, err := s.storage.GetDictionaryWords(ctx, category)
	if err != nil {
		return err
	}
	s.loadWords(category, words)
	return nil
}

// LoadFromFile loads a category's word list from a file (one word per
// line) and persists it to storage
func (s *Service) LoadFromFile(ctx context.Context, category, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := s.storage.SaveDictionaryWords(ctx, category, words); err != nil {
		return err
	}

	s.loadWords(category, words)
	return nil
}

// LoadWords directly loads a category's words (useful for testing)
func (s *Service) LoadWords(category string, words []string) {
	s.loadWords(category, words)
}

func (s *Service) loadWords(category string, words []string) {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		// Store lowercase for case-insensitive matching
		set[strings.ToLower(word)] = struct{}{}
	}

	s.mu.Lock()
	s.categories[strings.ToLower(category)] = set
	s.mu.Unlock()
}

// IsValidWord checks whether a word exists in the given category.
// Returns ErrDictionaryNotLoaded if the category has not been loaded.
func (s *Service) IsValidWord(word, category string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.categories[strings.ToLower(category)]
	if !ok {
		return false, model.ErrDictionaryNotLoaded
	}

	if len(word) < 2 {
		return false, nil
	}

	_, ok = set[strings.ToLower(word)]
	return ok, nil
}

// Categories returns the loaded category names
func (s *Service) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	return names
}

// WordCount returns the number of words loaded for a category
func (s *Service) WordCount(category string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories[strings.ToLower(category)])
}

// Interface check
type ServiceInterface interface {
	IsValidWord(word, category string) (bool, error)
	Categories() []string
	WordCount(category string) int
	LoadFromStorage(ctx context.Context, category string) error
	LoadFromFile(ctx context.Context, category, path string) error
	LoadWords(category string, words []string)
}

var _ ServiceInterface = (*Service)(nil)
