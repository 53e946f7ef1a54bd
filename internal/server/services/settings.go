package services

import "sync"

// FeedSettings owns the default feed keyword. Readers take a snapshot and
// pass it along explicitly.
type FeedSettings struct {
	mu      sync.RWMutex
	keyword string
}

func NewFeedSettings(keyword string) *FeedSettings {
	return &FeedSettings{keyword: keyword}
}

func (s *FeedSettings) Keyword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyword
}

func (s *FeedSettings) SetKeyword(k string) {
	s.mu.Lock()
	s.keyword = k
	s.mu.Unlock()
}
