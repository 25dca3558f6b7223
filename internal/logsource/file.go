package logsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tinysift/sift/internal/model"
)

const (
	// DefaultFileBuffer is the default channel buffer size for file lines.
	DefaultFileBuffer = 50_000

	// DefaultFileMaxLineSize is the default maximum size (in bytes) of a single line.
	DefaultFileMaxLineSize = 1024 * 1024 // 1MB
)

// FileConfig holds tunable parameters for the file source.
type FileConfig struct {
	BufferSize  int
	MaxLineSize int
}

// FileSource reads a whole log file, emitting lines in file order. The file
// is opened eagerly so a missing or unreadable input fails the run before
// any analysis starts.
type FileSource struct {
	f      *os.File
	ch     chan model.IngestEnvelope
	cancel context.CancelFunc
}

// NewFileSource opens path and starts reading it in a background goroutine.
func NewFileSource(ctx context.Context, path string, conf ...FileConfig) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}

	bufferSize := DefaultFileBuffer
	maxLineSize := DefaultFileMaxLineSize
	if len(conf) > 0 {
		if conf[0].BufferSize > 0 {
			bufferSize = conf[0].BufferSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		f:      f,
		ch:     make(chan model.IngestEnvelope, bufferSize),
		cancel: cancel,
	}
	go s.read(ctx, maxLineSize)
	return s, nil
}

func (s *FileSource) read(ctx context.Context, maxLineSize int) {
	defer close(s.ch)
	defer func() { _ = s.f.Close() }()

	scanner := bufio.NewScanner(s.f)
	buf := make([]byte, maxLineSize)
	scanner.Buffer(buf, maxLineSize)

	for scanner.Scan() {
		select {
		case s.ch <- model.IngestEnvelope{Source: s.Name(), Line: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Printf("logsource: line in %s exceeded max size (%d bytes), stopping", s.f.Name(), maxLineSize)
			return
		}
		log.Printf("logsource: error reading %s: %v", s.f.Name(), err)
	}
}

func (s *FileSource) Lines() <-chan model.IngestEnvelope { return s.ch }
func (s *FileSource) Stop()                              { s.cancel() }
func (s *FileSource) Name() string                       { return "file" }
