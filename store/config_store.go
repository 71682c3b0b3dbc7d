// Package store holds the current configuration snapshot for local
// evaluation. The snapshot and its lookup indices are replaced as one atomic
// unit, so evaluation never observes a partially-updated rule set.
package store

import (
	"sync/atomic"

	"github.com/scr2em/kitbase-go/models"
)

type snapshot struct {
	config   *models.Configuration
	flags    map[string]*models.Flag
	segments map[string]*models.Segment
}

// ConfigStore holds exactly one immutable configuration plus derived indices.
type ConfigStore struct {
	current atomic.Pointer[snapshot]
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

// SetConfiguration replaces the stored configuration and rebuilds the flag
// and segment indices in one swap. The configuration must not be mutated by
// the caller afterwards.
func (s *ConfigStore) SetConfiguration(cfg *models.Configuration) {
	snap := &snapshot{
		config:   cfg,
		flags:    make(map[string]*models.Flag, len(cfg.Flags)),
		segments: make(map[string]*models.Segment, len(cfg.Segments)),
	}
	for i := range cfg.Flags {
		snap.flags[cfg.Flags[i].Key] = &cfg.Flags[i]
	}
	for i := range cfg.Segments {
		snap.segments[cfg.Segments[i].Key] = &cfg.Segments[i]
	}
	s.current.Store(snap)
}

// Configuration returns the stored configuration, or nil before the first
// sync completes.
func (s *ConfigStore) Configuration() *models.Configuration {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.config
}

func (s *ConfigStore) FlagByKey(key string) (*models.Flag, bool) {
	snap := s.current.Load()
	if snap == nil {
		return nil, false
	}
	f, ok := snap.flags[key]
	return f, ok
}

// SegmentByKey satisfies engine.SegmentResolver.
func (s *ConfigStore) SegmentByKey(key string) (*models.Segment, bool) {
	snap := s.current.Load()
	if snap == nil {
		return nil, false
	}
	seg, ok := snap.segments[key]
	return seg, ok
}

// Flags returns the flag collection of the current snapshot.
func (s *ConfigStore) Flags() []models.Flag {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.config.Flags
}

// Ready reports whether a configuration has been stored.
func (s *ConfigStore) Ready() bool {
	return s.current.Load() != nil
}

// ETag returns the version token of the stored configuration, or "" pre-init.
func (s *ConfigStore) ETag() string {
	snap := s.current.Load()
	if snap == nil {
		return ""
	}
	return snap.config.ETag
}
