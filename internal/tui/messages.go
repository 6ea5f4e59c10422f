package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.aimuz.me/robovoice/internal/types"
)

// notificationMsg carries one pipeline notification into Update.
type notificationMsg types.Notification

// notificationsClosedMsg is sent once the pipeline has shut down.
type notificationsClosedMsg struct{}

// waitForNotification blocks on the pipeline channel off the UI loop.
func waitForNotification(ch <-chan types.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return notificationsClosedMsg{}
		}
		return notificationMsg(n)
	}
}

const (
	tagInfo  = "[INFO]"
	tagError = "[ERROR]"
	tagDE    = "[DE]"
	tagEN    = "[EN]"
	tagSend  = "[SEND]"
)

// logLine is one entry of the log viewport.
type logLine struct {
	Tag  string
	Text string
}

func (l logLine) String() string {
	return l.Tag + " " + l.Text
}

func (l logLine) render() string {
	style, ok := tagStyles[l.Tag]
	if !ok {
		return l.String()
	}
	return style.Render(l.Tag) + " " + l.Text
}

// formatNotification maps a notification onto the log format of the shell.
func formatNotification(n types.Notification) logLine {
	switch n.Kind {
	case types.KindRecognizedGerman:
		return logLine{Tag: tagDE, Text: `"` + n.Text + `"`}
	case types.KindTranslatedEnglish:
		return logLine{Tag: tagEN, Text: `"` + n.Text + `"`}
	case types.KindError:
		return logLine{Tag: tagError, Text: n.Text}
	case types.KindDispatchSucceeded:
		return logLine{Tag: tagSend, Text: n.Text}
	default:
		return logLine{Tag: tagInfo, Text: n.Text}
	}
}
