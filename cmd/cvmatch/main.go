package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"cv_matcher/internal/app"
	"cv_matcher/internal/auth"
	"cv_matcher/internal/bridge"
	"cv_matcher/internal/config"
	"cv_matcher/internal/gemini"
	"cv_matcher/internal/scrape"
	"cv_matcher/internal/sheets"
	"cv_matcher/internal/store"
)

var (
	dbPath     string
	bridgeAddr string
)

func main() {
	app.SetupEnvironment()

	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".cvmatch", "cvmatch.db")

	rootCmd := &cobra.Command{
		Use:   "cvmatch",
		Short: "Analyze job postings against your CV and track them in a Google Sheet",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.PersistentFlags().StringVar(&bridgeAddr, "bridge", "", "address of a running bridge daemon (e.g. http://127.0.0.1:8754); empty runs in-process")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(sheetCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the settings database, creating its directory on first use.
func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(dbPath)
}

func newAuthService(st *store.Store) *auth.Service {
	return auth.NewService(st,
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
	)
}

// newBridge wires the real components behind the dispatcher.
func newBridge(st *store.Store) *bridge.Bridge {
	return bridge.New(
		st,
		scrape.NewScraper(),
		gemini.NewClient(),
		sheets.NewClient(st),
		newAuthService(st),
		config.DefaultResilience,
	)
}

// dispatch routes a command through a running daemon when --bridge is
// set, otherwise through an in-process bridge. Both paths return the same
// envelope shape.
func dispatch(ctx context.Context, st *store.Store, action string, data any) bridge.Response {
	if bridgeAddr != "" {
		return bridge.Call(ctx, bridgeAddr, action, data)
	}

	payload, err := jsonMarshal(data)
	if err != nil {
		return bridge.Response{Success: false, Error: err.Error()}
	}
	return newBridge(st).Dispatch(ctx, bridge.Request{Action: action, Data: payload})
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
