package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.aimuz.me/robovoice/dispatch"
	"go.aimuz.me/robovoice/internal/types"
	"go.aimuz.me/robovoice/stt"
	"go.aimuz.me/robovoice/translate"
	"go.aimuz.me/robovoice/wav"
)

// run executes the stages after capture for one gesture. Every path ends
// with exactly one Final notification and the state back at idle.
func (s *Service) run(ctx context.Context, j job) {
	id := j.gestureID
	log := slog.With("component", "pipeline", "gesture", id)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", "panic", r, "stack", string(debug.Stack()))
			s.finish(id, types.KindError, types.ErrInternal, fmt.Sprintf("pipeline failed: %v", r))
		}
	}()

	if j.rec.Empty() {
		s.transition(log, StateIdle)
		s.finish(id, types.KindError, types.ErrEmptyAudio, MessageEmptyAudio)
		return
	}

	s.transition(log, StateTranscribing)

	audio, err := wav.Frame(j.rec.PCM, j.rec.SampleRate, j.rec.SampleWidth, j.rec.Channels)
	if err != nil {
		log.Error("frame audio", "error", err,
			"rate", j.rec.SampleRate, "width", j.rec.SampleWidth, "channels", j.rec.Channels)
		s.finish(id, types.KindError, types.ErrInvalidAudioParameters, "Audio format not supported")
		return
	}

	s.emit(id, types.KindStatus, StatusTranscribing)
	tr := s.opts.Transcriber.Transcribe(ctx, audio, s.opts.Language)
	switch tr.Status {
	case stt.StatusRecognized:
	case stt.StatusEmpty, stt.StatusUnintelligible:
		log.Info("speech not recognized", "status", tr.Status)
		s.finish(id, types.KindError, types.ErrUnintelligible, MessageUnintelligible)
		return
	default:
		s.finish(id, types.KindError, types.ErrTranscriptionServiceError,
			"Could not request results from speech recognition service; "+tr.Detail)
		return
	}

	log.Info("recognized", "text", tr.Text)
	s.emit(id, types.KindRecognizedGerman, tr.Text)

	s.transition(log, StateTranslating)
	s.emit(id, types.KindStatus, StatusTranslating)

	command := tr.Text
	tl := s.opts.Translator.Translate(ctx, tr.Text, translate.DefaultSource, translate.DefaultTarget)
	if tl.Status == translate.StatusTranslated {
		command = tl.Text
		log.Info("translated", "text", command, "cache_hit", tl.Usage.CacheHit)
		s.emit(id, types.KindTranslatedEnglish, command)
	} else {
		// Continue with the original text.
		log.Error("translation failed, sending original", "detail", tl.Detail)
		s.emitError(id, types.ErrTranslationServiceError, "Translation failed: "+tl.Detail)
	}

	if !j.cfg.SendingEnabled {
		s.transition(log, StateSkipped)
		s.transition(log, StateIdle)
		s.finish(id, types.KindStatus, "", StatusNotSent)
		return
	}

	s.transition(log, StateDispatching)
	s.emit(id, types.KindStatus, StatusSending)

	out := s.opts.Dispatcher.Dispatch(ctx, j.cfg.EndpointURL, command)
	s.transition(log, StateIdle)

	switch out.Status {
	case dispatch.StatusSent:
		s.finish(id, types.KindDispatchSucceeded, "", MessageSent)
	case dispatch.StatusRejected:
		s.finish(id, types.KindError, types.ErrDispatchRejected, out.Error())
	default:
		s.finish(id, types.KindError, types.ErrDispatchNetworkError, out.Error())
	}
}

func (s *Service) transition(log *slog.Logger, to State) {
	from := s.sm.Current()
	spent := s.sm.StateDuration()
	if !s.sm.Transition(to) {
		log.Warn("invalid state transition", "from", from, "to", to)
		return
	}
	log.Debug("state changed", "from", from, "to", to, "after", spent)
}
