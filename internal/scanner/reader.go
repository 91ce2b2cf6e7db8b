package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/remoteid-mesh/internal/remoteid"
)

// maxLineSize bounds one input line.
const maxLineSize = 4096

// ReaderSource reads advertisement records line by line.
//
// Blank lines and lines that do not start with '{' (boot banners, debug
// prints from the capture helper) are skipped silently. Lines that look like
// records but fail to parse, and lines longer than maxLineSize, are counted
// as invalid and skipped.
type ReaderSource struct {
	name   string
	r      io.Reader
	closer io.Closer
	logger Logger
	counters
}

// NewReaderSource creates a source reading r.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, r: r, logger: noopLogger{}}
}

// OpenFile creates a source reading the file, FIFO or serial device at path.
// The file is closed when Run returns.
func OpenFile(path string) (*ReaderSource, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("opening scanner input: %w", err)
	}
	s := NewReaderSource(path, f)
	s.closer = f
	return s, nil
}

// SetLogger sets the logger for skipped lines.
func (s *ReaderSource) SetLogger(logger Logger) {
	s.logger = logger
}

// Name implements Source.
func (s *ReaderSource) Name() string { return s.name }

// Stats implements Source.
func (s *ReaderSource) Stats() Stats { return s.snapshot() }

// Run implements Source. It blocks sending to out, so a slow pipeline
// slows the reader rather than losing lines.
func (s *ReaderSource) Run(ctx context.Context, out chan<- remoteid.RawAdvertisement) error {
	if s.closer != nil {
		defer s.closer.Close()
		// Unblock a read pending on a FIFO or serial device.
		stop := context.AfterFunc(ctx, func() { s.closer.Close() })
		defer stop()
	}

	br := bufio.NewReaderSize(s.r, maxLineSize)
	for {
		line, overlong, err := readLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading %s: %w", s.name, err)
		}

		if overlong {
			s.invalid.Add(1)
			s.logger.Debug("skipping overlong line", "source", s.name, "limit", maxLineSize)
			continue
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			continue
		}

		adv, err := ParseLine(line)
		if err != nil {
			s.invalid.Add(1)
			s.logger.Debug("skipping advertisement line", "source", s.name, "error", err)
			continue
		}
		s.received.Add(1)

		select {
		case out <- adv:
		case <-ctx.Done():
			return nil
		}
	}
}

// readLine returns the next line without its terminator. A line that does
// not fit the reader's buffer is consumed to its end and reported as
// overlong. A final line without a newline is returned before io.EOF.
func readLine(br *bufio.Reader) (line []byte, overlong bool, err error) {
	line, isPrefix, err := br.ReadLine()
	if err != nil {
		return nil, false, err
	}
	for isPrefix {
		overlong = true
		if _, isPrefix, err = br.ReadLine(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, true, nil
			}
			return nil, true, err
		}
	}
	return line, overlong, nil
}
