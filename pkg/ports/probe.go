package ports

// VideoProbe inspects an encoded video container.
type VideoProbe interface {
	// Probe returns stream information for the container in data.
	Probe(data []byte) (VideoInfo, error)
}

// VideoInfo describes the video track of a container.
type VideoInfo struct {
	Codec       string `json:"codec"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	SampleCount int    `json:"sample_count"`
	DurationMs  int    `json:"duration_ms"`
}
