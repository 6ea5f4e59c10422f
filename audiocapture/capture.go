// Package audiocapture records microphone audio into an in-memory PCM buffer.
//
// A Session is opened on a Backend when the user starts speaking and closed
// when they stop. Closing yields a Recording: the raw little-endian PCM in
// arrival order together with the format metadata needed to frame it.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrDeviceUnavailable is returned when no input device supports the requested format.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Format describes the PCM layout a session records in.
type Format struct {
	SampleRate  int // Hz
	Channels    int
	SampleWidth int // bytes per sample
}

// DefaultFormat returns 16 kHz mono 16-bit, the format cloud STT expects.
func DefaultFormat() Format {
	return Format{
		SampleRate:  16000,
		Channels:    1,
		SampleWidth: 2,
	}
}

// Stream is a running capture on a device.
// Stop must not return until the backend has delivered its last frame.
type Stream interface {
	Stop() error
}

// Backend opens input streams on audio hardware.
// onFrame is called with little-endian PCM chunks in arrival order.
type Backend interface {
	Open(device string, f Format, onFrame func(frame []byte)) (Stream, error)
}

// Recording is the immutable result of a closed session.
type Recording struct {
	PCM         []byte
	SampleRate  int
	SampleWidth int
	Channels    int
}

// Empty reports whether no audio was captured.
func (r Recording) Empty() bool {
	return len(r.PCM) == 0
}

// Duration returns the length of the recorded audio.
func (r Recording) Duration() time.Duration {
	frameSize := r.SampleWidth * r.Channels
	if frameSize <= 0 || r.SampleRate <= 0 {
		return 0
	}
	frames := len(r.PCM) / frameSize
	return time.Duration(frames) * time.Second / time.Duration(r.SampleRate)
}

// Session accumulates audio from a single start/stop gesture.
type Session struct {
	format    Format
	stream    Stream
	startTime time.Time

	mu     sync.Mutex
	buf    []byte
	closed bool

	closeOnce sync.Once
	rec       Recording
}

// Open starts capturing on the named device (empty for the default).
// A zero Format selects DefaultFormat.
func Open(b Backend, device string, f Format) (*Session, error) {
	if f == (Format{}) {
		f = DefaultFormat()
	}

	s := &Session{
		format:    f,
		startTime: time.Now(),
	}

	stream, err := b.Open(device, f, s.AppendFrame)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.stream = stream

	slog.Debug("audio session opened", "device", device, "rate", f.SampleRate, "channels", f.Channels)
	return s, nil
}

// AppendFrame extends the buffer with a chunk of PCM.
// Frames arriving after Close are dropped.
func (s *Session) AppendFrame(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.buf = append(s.buf, frame...)
}

// Len returns the number of bytes captured so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Elapsed returns how long the session has been open.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// Close stops the stream and returns the captured audio.
// Subsequent calls return the same Recording.
func (s *Session) Close() Recording {
	s.closeOnce.Do(func() {
		if s.stream != nil {
			if err := s.stream.Stop(); err != nil {
				slog.Warn("stop audio stream", "error", err)
			}
		}

		s.mu.Lock()
		s.closed = true
		s.rec = Recording{
			PCM:         s.buf,
			SampleRate:  s.format.SampleRate,
			SampleWidth: s.format.SampleWidth,
			Channels:    s.format.Channels,
		}
		s.buf = nil
		s.mu.Unlock()

		slog.Debug("audio session closed", "bytes", len(s.rec.PCM), "duration", s.rec.Duration())
	})
	return s.rec
}
