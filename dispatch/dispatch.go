// Package dispatch delivers translated commands to the robot endpoint.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single dispatch request.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a rejection body is kept.
const maxBodyBytes = 64 << 10

// Status classifies a dispatch attempt.
type Status int

const (
	StatusSent Status = iota
	StatusRejected
	StatusNetworkError
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusRejected:
		return "rejected"
	case StatusNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of Dispatcher.Dispatch.
type Outcome struct {
	Status     Status
	StatusCode int    // set when Status is StatusRejected
	Body       string // set when Status is StatusRejected
	Detail     string // set when Status is StatusNetworkError
}

// Error renders a failed outcome the way the log shows it.
func (o Outcome) Error() string {
	switch o.Status {
	case StatusRejected:
		return fmt.Sprintf("HTTP %d: %s", o.StatusCode, o.Body)
	case StatusNetworkError:
		return "Network error: " + o.Detail
	default:
		return ""
	}
}

type commandBody struct {
	Command string `json:"command"`
}

// Dispatcher posts commands as JSON. It never retries.
type Dispatcher struct {
	http *http.Client
}

// New creates a Dispatcher. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{http: &http.Client{Timeout: timeout}}
}

// Dispatch POSTs {"command": text} to endpointURL. Only HTTP 200 counts as sent.
func (d *Dispatcher) Dispatch(ctx context.Context, endpointURL, text string) Outcome {
	if endpointURL == "" {
		return Outcome{Status: StatusNetworkError, Detail: "endpoint url not configured"}
	}

	body, err := json.Marshal(commandBody{Command: text})
	if err != nil {
		return Outcome{Status: StatusNetworkError, Detail: fmt.Sprintf("marshal command: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return Outcome{Status: StatusNetworkError, Detail: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		slog.Warn("dispatch command", "url", endpointURL, "error", err)
		return Outcome{Status: StatusNetworkError, Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusOK {
		slog.Warn("command rejected", "url", endpointURL, "status", resp.StatusCode)
		return Outcome{Status: StatusRejected, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	slog.Info("command sent", "url", endpointURL)
	return Outcome{Status: StatusSent}
}
