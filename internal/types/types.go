// Package types provides shared type definitions for the application.
package types

import "time"

// PipelineConfig is the per-gesture view of the persisted settings.
// It is copied by value when a gesture starts.
type PipelineConfig struct {
	EndpointURL    string `json:"endpointUrl"`
	SendingEnabled bool   `json:"sendingEnabled"`
}

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CacheHit         bool `json:"cacheHit"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications
// ─────────────────────────────────────────────────────────────────────────────

// NotificationKind identifies what a Notification reports.
type NotificationKind string

const (
	KindStatus            NotificationKind = "status"
	KindRecognizedGerman  NotificationKind = "recognizedGerman"
	KindTranslatedEnglish NotificationKind = "translatedEnglish"
	KindError             NotificationKind = "error"
	KindDispatchSucceeded NotificationKind = "dispatchSucceeded"
)

// ErrorKind classifies pipeline failures carried by error notifications.
type ErrorKind string

const (
	ErrDeviceUnavailable         ErrorKind = "device_unavailable"
	ErrEmptyAudio                ErrorKind = "empty_audio"
	ErrUnintelligible            ErrorKind = "unintelligible"
	ErrTranscriptionServiceError ErrorKind = "transcription_service_error"
	ErrTranslationServiceError   ErrorKind = "translation_service_error"
	ErrDispatchRejected          ErrorKind = "dispatch_rejected"
	ErrDispatchNetworkError      ErrorKind = "dispatch_network_error"
	ErrInvalidAudioParameters    ErrorKind = "invalid_audio_parameters"
	ErrInternal                  ErrorKind = "internal"
)

// Notification is a single event delivered to the shell.
type Notification struct {
	GestureID string           `json:"gestureId"`
	Kind      NotificationKind `json:"kind"`
	Text      string           `json:"text"`
	ErrorKind ErrorKind        `json:"errorKind,omitempty"`
	Final     bool             `json:"final"` // last notification of the gesture
	Time      time.Time        `json:"time"`
}
