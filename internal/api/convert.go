package api

import (
	"time"

	"hindsight/internal/catalog"
)

// FromClip converts a catalog clip into its transport representation.
func FromClip(clip *catalog.Clip) Clip {
	if clip == nil {
		return Clip{}
	}
	return Clip{
		ID:            clip.ID,
		Title:         clip.Title,
		Status:        string(clip.Status),
		BeforeSeconds: clip.BeforeSeconds,
		AfterSeconds:  clip.AfterSeconds,
		FPS:           clip.FPS,
		FrameWidth:    clip.FrameWidth,
		FrameHeight:   clip.FrameHeight,
		FrameCount:    clip.FrameCount,
		ArtifactPath:  clip.ArtifactPath,
		ArtifactBytes: clip.ArtifactBytes,
		ErrorDetail:   clip.ErrorDetail,
		CreatedAt:     FormatTime(clip.CreatedAt),
		UpdatedAt:     FormatTime(clip.UpdatedAt),
	}
}

// FromClips converts a slice of catalog clips, preserving order.
func FromClips(clips []*catalog.Clip) []Clip {
	if len(clips) == 0 {
		return nil
	}
	out := make([]Clip, 0, len(clips))
	for _, clip := range clips {
		out = append(out, FromClip(clip))
	}
	return out
}

// FormatTime renders a timestamp for API payloads; zero times become "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
