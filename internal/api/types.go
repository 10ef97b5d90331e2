package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Clip describes a catalog entry in a transport-friendly format.
type Clip struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	BeforeSeconds int    `json:"beforeSeconds"`
	AfterSeconds  int    `json:"afterSeconds"`
	FPS           int    `json:"fps"`
	FrameWidth    int    `json:"frameWidth"`
	FrameHeight   int    `json:"frameHeight"`
	FrameCount    int    `json:"frameCount"`
	ArtifactPath  string `json:"artifactPath,omitempty"`
	ArtifactBytes int64  `json:"artifactBytes,omitempty"`
	ErrorDetail   string `json:"errorDetail,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// CaptureRequest is the POST body that triggers a clip extraction.
type CaptureRequest struct {
	BeforeSeconds int    `json:"beforeSeconds"`
	AfterSeconds  int    `json:"afterSeconds"`
	Title         string `json:"title,omitempty"`
	FPS           int    `json:"fps,omitempty"`
	FrameWidth    int    `json:"frameWidth,omitempty"`
	FrameHeight   int    `json:"frameHeight,omitempty"`
}

// BufferStatus reports the frame history state.
type BufferStatus struct {
	CapacityFrames int  `json:"capacityFrames"`
	BufferedFrames int  `json:"bufferedFrames"`
	Unbounded      bool `json:"unbounded"`
}

// IngestStatus reports the ingest pipeline state.
type IngestStatus struct {
	IngestedFrames uint64 `json:"ingestedFrames"`
	IngestedBytes  uint64 `json:"ingestedBytes"`
	LastTimestamp  string `json:"lastTimestamp,omitempty"`
	Subscribers    int    `json:"subscribers"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	CatalogDBPath string             `json:"catalogDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	SourceMode    string             `json:"sourceMode"`
	SourceActive  bool               `json:"sourceActive"`
	Buffer        BufferStatus       `json:"buffer"`
	Ingest        IngestStatus       `json:"ingest"`
	Cameras       []string           `json:"cameras,omitempty"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// ClipListResponse wraps a collection of clips for API responses.
type ClipListResponse struct {
	Clips []Clip `json:"clips"`
}

// ClipResponse wraps a single clip.
type ClipResponse struct {
	Clip Clip `json:"clip"`
}
