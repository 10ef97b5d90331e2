package api

import (
	"context"
	"errors"

	"hindsight/internal/catalog"
)

// ClipReader abstracts catalog persistence interactions needed for API queries.
type ClipReader interface {
	List(ctx context.Context, limit int) ([]*catalog.Clip, error)
	GetByID(ctx context.Context, id string) (*catalog.Clip, error)
}

// ClipService exposes read-only catalog operations returning API DTOs.
type ClipService struct {
	store ClipReader
}

// NewClipService constructs a ClipService around the provided reader.
func NewClipService(store ClipReader) *ClipService {
	if store == nil {
		return nil
	}
	return &ClipService{store: store}
}

// List returns the newest clips up to limit; limit <= 0 returns all.
func (s *ClipService) List(ctx context.Context, limit int) ([]Clip, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	clips, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return FromClips(clips), nil
}

// Describe fetches a single clip by ID.
func (s *ClipService) Describe(ctx context.Context, id string) (*Clip, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	clip, err := s.store.GetByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	if err != nil || clip == nil {
		return nil, err
	}
	dto := FromClip(clip)
	return &dto, nil
}
