package mocks

import "github.com/user/episodeviz/pkg/ports"

// VideoProbe is a mock implementation of ports.VideoProbe.
type VideoProbe struct {
	ProbeFunc func(data []byte) (ports.VideoInfo, error)

	ProbeCalled bool
}

func (m *VideoProbe) Probe(data []byte) (ports.VideoInfo, error) {
	m.ProbeCalled = true
	if m.ProbeFunc != nil {
		return m.ProbeFunc(data)
	}
	return ports.VideoInfo{Codec: "h264"}, nil
}

var _ ports.VideoProbe = (*VideoProbe)(nil)
