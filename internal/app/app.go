// Package app wires capture, transcription, translation and dispatch into
// a single gesture-driven service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/robovoice/audiocapture"
	"go.aimuz.me/robovoice/dispatch"
	"go.aimuz.me/robovoice/internal/types"
	"go.aimuz.me/robovoice/stt"
	"go.aimuz.me/robovoice/translate"
)

var (
	// ErrBusy is returned when a gesture starts while another is open or in flight.
	ErrBusy = errors.New("gesture already in progress")

	// ErrNotCapturing is returned when stopping without an open session.
	ErrNotCapturing = errors.New("not capturing audio")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("service closed")
)

// Transcriber converts framed audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) stt.Outcome
}

// Translator converts German text to English.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) translate.Outcome
}

// Dispatcher delivers a command to the robot.
type Dispatcher interface {
	Dispatch(ctx context.Context, endpointURL, text string) dispatch.Outcome
}

// ConfigStore persists pipeline settings.
type ConfigStore interface {
	Apply(types.PipelineConfig)
	Save() error
}

// Options configures a Service.
type Options struct {
	Backend     audiocapture.Backend
	Device      string
	Transcriber Transcriber
	Translator  Translator
	Dispatcher  Dispatcher

	// Store is optional. When set, UpdateConfig persists through it.
	Store ConfigStore

	// Initial pipeline settings.
	Config types.PipelineConfig

	// Language is the BCP-47 tag spoken, defaults to stt.DefaultLanguage.
	Language string

	// NotificationBuffer sizes the notification channel, defaults to 64.
	NotificationBuffer int
}

type job struct {
	gestureID string
	rec       audiocapture.Recording
	cfg       types.PipelineConfig
}

// Service runs one gesture at a time on a background worker.
// StartGesture, StopGesture and UpdateConfig are meant to be called from
// the interactive goroutine; notifications are read from Notifications.
type Service struct {
	opts   Options
	sm     *StateMachine
	notes  chan types.Notification
	outbox *outbox
	jobs   chan job
	wg     sync.WaitGroup

	mu       sync.Mutex
	cfg      types.PipelineConfig
	session  *audiocapture.Session
	gesture  string
	snapshot types.PipelineConfig
	busy     bool
	closed   bool
}

// New creates a Service and starts its worker.
func New(opts Options) *Service {
	if opts.Language == "" {
		opts.Language = stt.DefaultLanguage
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = 64
	}

	s := &Service{
		opts:  opts,
		sm:    NewStateMachine(),
		notes:  make(chan types.Notification, opts.NotificationBuffer),
		outbox: newOutbox(),
		jobs:   make(chan job, 1),
		cfg:    opts.Config,
	}

	go s.outbox.pump(s.notes)

	s.wg.Add(1)
	go s.worker()
	return s
}

// Notifications returns the ordered notification stream.
// It is closed after Close once every pending notification is delivered.
func (s *Service) Notifications() <-chan types.Notification {
	return s.notes
}

// State returns the pipeline state.
func (s *Service) State() State {
	return s.sm.Current()
}

// Busy reports whether a session is open or a run is in flight.
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil || s.busy
}

// Config returns the current pipeline settings.
func (s *Service) Config() types.PipelineConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig replaces the settings used by future gestures.
// A gesture already started keeps its snapshot.
func (s *Service) UpdateConfig(pc types.PipelineConfig) error {
	s.mu.Lock()
	s.cfg = pc
	s.mu.Unlock()

	if s.opts.Store == nil {
		return nil
	}
	s.opts.Store.Apply(pc)
	if err := s.opts.Store.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// StartGesture opens a capture session and returns the gesture ID.
func (s *Service) StartGesture() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	if s.session != nil || s.busy {
		return "", ErrBusy
	}

	id := uuid.NewString()
	if !s.sm.Transition(StateCapturingAudio) {
		return "", ErrBusy
	}

	session, err := audiocapture.Open(s.opts.Backend, s.opts.Device, audiocapture.DefaultFormat())
	if err != nil {
		s.sm.Reset()
		slog.Error("open audio session", "gesture", id, "error", err)
		s.emitFinal(id, types.KindError, types.ErrDeviceUnavailable, fmt.Sprintf("Audio format not supported: %v", err))
		return "", err
	}

	s.session = session
	s.gesture = id
	s.snapshot = s.cfg
	s.emit(id, types.KindStatus, StatusListening)
	return id, nil
}

// StopGesture closes the session and hands the recording to the worker.
func (s *Service) StopGesture() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNotCapturing
	}

	held := s.session.Elapsed()
	rec := s.session.Close()
	j := job{gestureID: s.gesture, rec: rec, cfg: s.snapshot}
	s.session = nil
	s.gesture = ""
	s.busy = true

	slog.Info("audio captured", "gesture", j.gestureID, "bytes", len(rec.PCM),
		"duration", rec.Duration(), "held", held, "level", rec.Level())

	// Capacity 1 and busy guard the send from blocking.
	s.jobs <- j
	return nil
}

// Close stops accepting gestures and waits for the in-flight run. The
// notification channel closes once the queued notifications are delivered.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.session != nil {
		s.session.Close()
		s.session = nil
		s.sm.Reset()
	}
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	s.outbox.close()
}

func (s *Service) worker() {
	defer s.wg.Done()

	for j := range s.jobs {
		s.run(context.Background(), j)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) emit(id string, kind types.NotificationKind, text string) {
	s.send(types.Notification{GestureID: id, Kind: kind, Text: text, Time: time.Now()})
}

func (s *Service) emitFinal(id string, kind types.NotificationKind, errKind types.ErrorKind, text string) {
	s.send(types.Notification{GestureID: id, Kind: kind, Text: text, ErrorKind: errKind, Final: true, Time: time.Now()})
}

func (s *Service) emitError(id string, errKind types.ErrorKind, text string) {
	s.send(types.Notification{GestureID: id, Kind: types.KindError, Text: text, ErrorKind: errKind, Time: time.Now()})
}

// finish delivers the last notification of a run. Resetting the state,
// clearing busy and queueing happen under one lock so a shell that sees the
// final notification can start the next gesture immediately.
func (s *Service) finish(id string, kind types.NotificationKind, errKind types.ErrorKind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sm.Reset()
	s.busy = false
	s.send(types.Notification{GestureID: id, Kind: kind, Text: text, ErrorKind: errKind, Final: true, Time: time.Now()})
}

// send queues n without blocking, so it is safe under s.mu.
func (s *Service) send(n types.Notification) {
	s.outbox.push(n)
}

// outbox is an unbounded FIFO between the service and the notification
// channel. Notifications are never dropped and never block the sender.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []types.Notification
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.cond = sync.NewCond(&o.mu)
	return o
}

func (o *outbox) push(n types.Notification) {
	o.mu.Lock()
	o.queue = append(o.queue, n)
	o.mu.Unlock()
	o.cond.Signal()
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cond.Broadcast()
}

// pump forwards queued notifications in order and closes out after close
// once the queue is drained.
func (o *outbox) pump(out chan<- types.Notification) {
	for {
		o.mu.Lock()
		for len(o.queue) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.queue) == 0 {
			o.mu.Unlock()
			close(out)
			return
		}
		n := o.queue[0]
		o.queue[0] = types.Notification{}
		o.queue = o.queue[1:]
		o.mu.Unlock()

		out <- n
	}
}
