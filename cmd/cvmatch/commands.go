package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cv_matcher/internal/app"
	"cv_matcher/internal/auth"
	"cv_matcher/internal/bridge"
	"cv_matcher/internal/notify"
	"cv_matcher/internal/render"
	"cv_matcher/internal/scrape"
	"cv_matcher/internal/sheets"
	"cv_matcher/internal/store"
)

func analyzeCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Scrape a job posting and analyze the match against your CV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := runAnalysis(ctx, st, bridge.ActionTrigger, bridge.TriggerPayload{URL: args[0]})
			if err != nil {
				return err
			}

			renderer := &render.Renderer{Color: true}
			renderer.Analysis(os.Stdout, report.Result, report.Job)

			if save || confirm("Save to tracker sheet?") {
				return saveReport(ctx, st, report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "append the result to the tracker sheet without asking")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <url>",
		Short: "Probe a page until a job description settles, then analyze it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			watcher := scrape.NewWatcher(scrape.NewScraper())
			page, err := watcher.Wait(ctx, args[0])
			if err != nil {
				return err
			}

			report, err := runAnalysis(ctx, st, bridge.ActionAnalyze, bridge.AnalyzePayload{
				JobDescription: page.Description,
				JobMetadata:    page.Meta,
			})

			notifier := notify.NewFromEnv()
			if err != nil {
				notifier.SendAsync(ctx, "Analysis failed", err.Error())
				return err
			}

			renderer := &render.Renderer{Color: true}
			renderer.Analysis(os.Stdout, report.Result, report.Job)
			notifier.SendAsync(ctx, "Analysis complete",
				fmt.Sprintf("%s at %s: %d%% match", report.Job.Title, report.Job.Company, report.Result.MatchPercentage))
			return nil
		},
	}
}

func saveCmd() *cobra.Command {
	var (
		company, title, url, notes string
		score                      int
		noScore                    bool
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Append one job to the tracker sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			job := app.TrackerRowInput{Company: company, Title: title, URL: url, Notes: notes}
			if !noScore {
				job.MatchScore = &score
			}
			return saveJob(ctx, st, job)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&url, "url", "", "job posting URL")
	cmd.Flags().IntVar(&score, "score", 0, "match score percentage")
	cmd.Flags().BoolVar(&noScore, "no-score", false, "record the row without a match score")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	return cmd
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to Google for sheet access",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			// Login cannot proceed without an OAuth client; fail before
			// opening the browser flow.
			clientID := app.GetRequiredEnv("GOOGLE_CLIENT_ID")
			clientSecret := app.GetRequiredEnv("GOOGLE_CLIENT_SECRET")

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			email, err := auth.NewService(st, clientID, clientSecret).Login(ctx)
			if err != nil {
				return err
			}
			if email != "" {
				fmt.Printf("Logged in as %s\n", email)
			}
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the Google token and clear the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := newAuthService(st).Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func sheetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheet",
		Short: "Create the tracker sheet if needed and print its URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			authSvc := newAuthService(st)
			token, err := authSvc.CachedToken(ctx)
			if err != nil {
				return err
			}
			account, err := authSvc.UserEmail(ctx, token)
			if err != nil {
				return err
			}

			id, err := sheets.NewClient(st).GetOrCreateTracker(ctx, token, account)
			if err != nil {
				return err
			}

			fmt.Printf("Tracker for %s:\n  https://docs.google.com/spreadsheets/d/%s\n", account, id)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
	}
	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configShowCmd())
	return cmd
}

var settingKeys = map[string]string{
	"apiKey":    store.KeyAPIKey,
	"cvText":    store.KeyCVText,
	"modelName": store.KeyModelName,
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set apiKey, cvText or modelName; a value of @path reads the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := settingKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown setting %q (want apiKey, cvText or modelName)", args[0])
			}

			value := args[1]
			if strings.HasPrefix(value, "@") {
				data, err := os.ReadFile(value[1:])
				if err != nil {
					return fmt.Errorf("read %s: %w", value[1:], err)
				}
				value = string(data)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetSetting(cmd.Context(), key, value); err != nil {
				return err
			}
			fmt.Printf("Saved %s.\n", args[0])
			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			settings, err := st.Settings(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("apiKey:    %s\n", mask(settings.APIKey))
			fmt.Printf("cvText:    %d characters\n", len(settings.CVText))
			model := settings.ModelName
			if model == "" {
				model = "(default)"
			}
			fmt.Printf("modelName: %s\n", model)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			return bridge.NewServer(newBridge(st), addr).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8754", "listen address")
	return cmd
}

// runAnalysis dispatches an analysis command and decodes its report.
func runAnalysis(ctx context.Context, st *store.Store, action string, payload any) (*bridge.AnalysisReport, error) {
	resp := dispatch(ctx, st, action, payload)
	if !resp.Success {
		return nil, fmt.Errorf("%s", resp.Error)
	}

	var report bridge.AnalysisReport
	if err := decodeData(resp.Data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// saveReport appends an analysis result to the tracker, prompting to
// retry on failure so a transient error does not cost the analysis.
func saveReport(ctx context.Context, st *store.Store, report *bridge.AnalysisReport) error {
	score := report.Result.MatchPercentage
	job := app.TrackerRowInput{
		Company:    report.Job.Company,
		Title:      report.Job.Title,
		URL:        report.Job.URL,
		MatchScore: &score,
		Notes:      report.Result.Summary,
	}

	for {
		err := saveJob(ctx, st, job)
		if err == nil {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
		if !confirm("Retry save?") {
			return err
		}
	}
}

func saveJob(ctx context.Context, st *store.Store, job app.TrackerRowInput) error {
	resp := dispatch(ctx, st, bridge.ActionSave, job)
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}

	var receipt bridge.SaveReceipt
	if err := decodeData(resp.Data, &receipt); err != nil {
		return err
	}
	fmt.Printf("Row added to spreadsheet %s\n", receipt.SpreadsheetID)
	return nil
}

// decodeData converts an envelope's Data field, which is a typed struct
// in-process but a decoded map when it came over the wire.
func decodeData(data any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode envelope data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

func jsonMarshal(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
