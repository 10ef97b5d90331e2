package catalog

import "time"

// Status represents the lifecycle of a clip extraction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCapturing Status = "capturing"
	StatusMuxing    Status = "muxing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusCapturing,
	StatusMuxing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Clip is one recorded extraction, successful or not.
type Clip struct {
	ID            string
	Title         string
	Status        Status
	BeforeSeconds int
	AfterSeconds  int
	FPS           int
	FrameWidth    int
	FrameHeight   int
	FrameCount    int
	ArtifactPath  string
	ArtifactBytes int64
	ErrorDetail   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
