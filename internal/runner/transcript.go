// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"io"
	"sync"
)

const (
	streamNone Stream = iota
	// Stdout is the standard output stream.
	Stdout
	// Stderr is the standard error stream.
	Stderr
)

type (
	// Stream identifies one of the two output streams of a process.
	Stream int

	// Transcript is the ordered, combined record of a process's output. It
	// is safe for concurrent use by the two pipe readers.
	Transcript struct {
		mu       sync.Mutex
		combined bytes.Buffer
		stdout   bytes.Buffer
		stderr   bytes.Buffer
		last     Stream
		markers  int
		sink     io.Writer
	}

	streamWriter struct {
		t *Transcript
		s Stream
	}
)

// String returns the stream name.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "none"
	}
}

// Marker returns the section marker line written before a chunk of s.
func (s Stream) Marker() string {
	return "--- " + s.String() + " ---\n"
}

// NewTranscript creates a Transcript. Every byte appended (markers
// included) is also written to sink when sink is non-nil.
func NewTranscript(sink io.Writer) *Transcript {
	return &Transcript{sink: sink}
}

// Append records one chunk. The first chunk gets no marker; each later
// change of stream inserts exactly one.
func (t *Transcript) Append(s Stream, p []byte) {
	if len(p) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last != streamNone && t.last != s {
		var marker []byte
		if b := t.combined.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
			marker = append(marker, '\n')
		}
		marker = append(marker, s.Marker()...)
		t.emit(marker)
		t.markers++
	}
	t.last = s
	t.emit(p)

	if s == Stderr {
		t.stderr.Write(p)
	} else {
		t.stdout.Write(p)
	}
}

func (t *Transcript) emit(p []byte) {
	t.combined.Write(p)
	if t.sink != nil {
		// Sink errors must not break capture.
		_, _ = t.sink.Write(p)
	}
}

// Writer returns an io.Writer appending to stream s.
func (t *Transcript) Writer(s Stream) io.Writer {
	return streamWriter{t: t, s: s}
}

func (w streamWriter) Write(p []byte) (int, error) {
	w.t.Append(w.s, p)
	return len(p), nil
}

// String returns the combined transcript.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.combined.String()
}

// Stdout returns everything written to standard output.
func (t *Transcript) Stdout() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stdout.String()
}

// Stderr returns everything written to standard error.
func (t *Transcript) Stderr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stderr.String()
}

// Markers returns how many section markers were inserted.
func (t *Transcript) Markers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.markers
}
