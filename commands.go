package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.aimuz.me/robovoice/audiocapture/mic"
	"go.aimuz.me/robovoice/internal/app"
	"go.aimuz.me/robovoice/internal/tui"
	"go.aimuz.me/robovoice/stt"
	"go.aimuz.me/robovoice/translate"
	"go.aimuz.me/robovoice/wav"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive terminal UI (default)",
	RunE:  runTUI,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe a WAV file and print the result",
	Long: `Transcribe runs speech-to-text on a WAV file and prints the German text.
With --translate the English translation is printed as well.`,
	RunE: runTranscribe,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE:  runDevices,
}

func init() {
	transcribeCmd.Flags().StringP("file", "f", "", "WAV file to transcribe")
	transcribeCmd.Flags().Bool("translate", false, "also translate the transcript to English")
	_ = transcribeCmd.MarkFlagRequired("file")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	if err := setupLogging(s.LogLevel, logFile); err != nil {
		return err
	}

	a := NewApp(s)
	defer a.Shutdown()
	if err := a.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	svc := app.New(app.Options{
		Backend:     mic.New(),
		Device:      s.Device,
		Transcriber: a.transcriber,
		Translator:  a.translator,
		Dispatcher:  a.dispatcher,
		Store:       a.cfg,
		Config:      a.cfg.Snapshot(),
		Language:    s.Language,
	})
	defer svc.Close()

	p := tea.NewProgram(tui.New(svc), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func runTranscribe(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	if err := setupLogging(s.LogLevel, os.Stderr); err != nil {
		return err
	}
	printBanner()

	path, _ := cmd.Flags().GetString("file")
	withTranslation, _ := cmd.Flags().GetBool("translate")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	info, err := wav.Inspect(data)
	if err != nil {
		return fmt.Errorf("inspect audio: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "File: %s (%d Hz, %d-bit, %d ch, %s)\n",
		filepath.Base(path), info.SampleRate, info.SampleWidth*8, info.Channels, info.Duration)

	a := NewApp(s)
	defer a.Shutdown()
	if err := a.setupSTT(); err != nil {
		return err
	}

	out := a.transcriber.Transcribe(cmd.Context(), data, s.Language)
	if err := printTranscript(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !withTranslation {
		return nil
	}

	a.setupCache()
	if err := a.setupTranslator(); err != nil {
		return err
	}
	tl := a.translator.Translate(cmd.Context(), out.Text, translate.DefaultSource, translate.DefaultTarget)
	if tl.Status != translate.StatusTranslated {
		return fmt.Errorf("translation failed: %s", tl.Detail)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[EN] %q\n", tl.Text)
	return nil
}

// printTranscript writes a recognized transcript or returns the failure.
func printTranscript(w io.Writer, out stt.Outcome) error {
	switch out.Status {
	case stt.StatusRecognized:
		fmt.Fprintf(w, "[DE] %q\n", out.Text)
		return nil
	case stt.StatusEmpty, stt.StatusUnintelligible:
		return errors.New(app.MessageUnintelligible)
	default:
		return fmt.Errorf("could not request results from speech recognition service; %s", out.Detail)
	}
}

func runDevices(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	if err := setupLogging(s.LogLevel, os.Stderr); err != nil {
		return err
	}
	printBanner()

	devices, err := mic.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No input devices found.")
		return nil
	}

	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-40s %d ch  %.0f Hz\n", marker, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return nil
}

func openLogFile() (*os.File, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("get user config dir: %w", err)
	}
	dir = filepath.Join(dir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, appName+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
