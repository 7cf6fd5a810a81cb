package mocks

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/episodeviz/pkg/ports"
)

// SequenceEncoder is a mock implementation of ports.SequenceEncoder.
// By default it writes Output to the output path and succeeds.
type SequenceEncoder struct {
	EncodeSequenceFunc func(ctx context.Context, seq ports.ImageSequence, outputPath string, opts ports.EncoderOptions) error

	// Output is written to the output path when EncodeSequenceFunc is nil.
	Output []byte

	// Recorded calls for verification
	mu    sync.Mutex
	Calls []EncodeSequenceCall
}

// EncodeSequenceCall records a call to EncodeSequence.
type EncodeSequenceCall struct {
	Sequence   ports.ImageSequence
	OutputPath string
	Options    ports.EncoderOptions
	// StagedFiles lists the names in the staging directory at call time.
	StagedFiles []string
}

func (m *SequenceEncoder) EncodeSequence(ctx context.Context, seq ports.ImageSequence, outputPath string, opts ports.EncoderOptions) error {
	call := EncodeSequenceCall{Sequence: seq, OutputPath: outputPath, Options: opts}
	if entries, err := os.ReadDir(seq.Dir); err == nil {
		for _, e := range entries {
			call.StagedFiles = append(call.StagedFiles, e.Name())
		}
	}
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()

	if m.EncodeSequenceFunc != nil {
		return m.EncodeSequenceFunc(ctx, seq, outputPath, opts)
	}
	output := m.Output
	if output == nil {
		// Minimal ftyp box
		output = []byte{0x00, 0x00, 0x00, 0x08, 'f', 't', 'y', 'p'}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, output, 0644)
}

// CallCount returns the number of EncodeSequence calls.
func (m *SequenceEncoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ ports.SequenceEncoder = (*SequenceEncoder)(nil)
