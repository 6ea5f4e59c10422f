package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dimiro1/banner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "robovoice",
	Short: "German voice commands for a remote robot",
	Long: `robovoice records a spoken German command, transcribes it, translates it
to English and posts it to the robot's HTTP endpoint.

Controls (terminal UI):
  space  start/stop listening
  s      toggle sending commands
  e      edit the robot URL
  q      quit`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default: $UserConfigDir/robovoice/config.json)")
	f.String("stt", "whisper-api", "speech-to-text provider: whisper-api, google, deepgram")
	f.String("translator", "openai", "translation provider: openai, claude, google")
	f.String("device", "", "input device name (default: system default)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.Duration("dispatch-timeout", 10*time.Second, "timeout for posting a command")
	f.Bool("no-cache", false, "disable the translation cache")

	for _, name := range []string{"config", "stt", "translator", "device", "log-level", "dispatch-timeout", "no-cache"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}

	rootCmd.AddCommand(runCmd, transcribeCmd, devicesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler.
func setupLogging(level string, w io.Writer) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func printBanner() {
	tpl := "{{ .Title \"ROBOVOICE\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
