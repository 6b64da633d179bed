// tutor-browse is a terminal client for browsing teacher or student
// listings served by tutor-api. It keeps its own snapshot of the listings
// and filters and sorts it locally; r re-reads it from the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/browse"
	"github.com/noah-isme/tutor-match-api/internal/client"
	"github.com/noah-isme/tutor-match-api/internal/listing"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		apiURL   string
		roleFlag string
		token    string
		district string
		newest   bool
		logFile  string
		logLevel string
		timeout  time.Duration
	)

	flagSet := pflag.NewFlagSet("tutor-browse", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api", envOr("TUTOR_API_URL", "http://localhost:8080/api/v1"), "API root including the version prefix")
	flagSet.StringVar(&roleFlag, "role", string(models.RoleTeacher), "listings to browse: teacher or student")
	flagSet.StringVar(&token, "token", os.Getenv("TUTOR_API_TOKEN"), "bearer token sent with requests")
	flagSet.StringVar(&district, "district", "", "start filtered to this district")
	flagSet.BoolVar(&newest, "newest", false, "start with newest-first ordering")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level for --log-file")
	flagSet.DurationVar(&timeout, "timeout", 20*time.Second, "per-fetch timeout")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	role, err := models.ParseRole(roleFlag)
	if err != nil {
		return err
	}

	logr, err := logger.NewFile(logFile, logLevel)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", logFile, err)
	}
	defer logr.Sync() //nolint:errcheck

	api, err := client.New(client.Config{BaseURL: apiURL, Token: token, Logger: logr})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := listing.NewController(role, api, logr)
	defer ctrl.Close()

	model := browse.New(ctrl, api, browse.Options{
		Context:  ctx,
		Dialer:   openURL,
		Logger:   logr,
		Timeout:  timeout,
		District: district,
		Newest:   newest,
	})

	logr.Info("browse started", zap.String("role", string(role)), zap.String("api", apiURL))
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// openURL hands url to the desktop opener without waiting for it.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tutor-browse: browse teacher or student listings in the terminal.

Usage:
  tutor-browse [flags]

Examples:
  # Browse teachers in Kaski, newest first
  tutor-browse --role teacher --district Kaski --newest

  # Browse students against a remote server
  tutor-browse --role student --api https://tutor.example.com/api/v1

Keys:
  r refresh · l location · s newest first · enter open · c call · q quit

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
