package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/player"
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that hypnojourney is ready to run sessions",
	Long: `Check the health of hypnojourney by verifying:
  • Configuration loading
  • API keys for script generation and voice synthesis
  • Session store access and schema version
  • Audio player availability
  • Audio archive directory (when configured)

Missing API keys and a missing player are warnings; an unusable store fails
the check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 hypnojourney Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := internal.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		if storePath != "" {
			cfg.StorePath = storePath
		}
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			fmt.Fprintf(out, "   Model: %s\n", cfg.Model)
			fmt.Fprintf(out, "   Store: %s\n", cfg.StorePath)
			fmt.Fprintf(out, "   HTTP timeout: %s\n", cfg.HTTPTimeout)
		}
		fmt.Fprintln(out)

		// Step 2: API keys
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking API keys..."))
		missing := cfg.MissingKeys()
		if len(missing) == 0 {
			fmt.Fprintln(out, successStyle.Render("✅ API keys set"))
		}
		for _, key := range missing {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %s is not set", key)))
		}
		fmt.Fprintln(out)

		// Step 3: Session store
		fmt.Fprintln(out, infoStyle.Render("Step 3: Opening session store..."))
		count, storeErr := checkStore(cfg.StorePath)
		if storeErr != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Session store unusable:"), storeErr)
		} else {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Session store ready (%d saved session(s))", count)))
		}
		fmt.Fprintln(out)

		// Step 4: Audio player
		fmt.Fprintln(out, infoStyle.Render("Step 4: Detecting audio player..."))
		playerOK := true
		if b, err := player.NewExecBackend(cfg.Player); err != nil {
			playerOK = false
			fmt.Fprintln(out, warningStyle.Render("⚠️  "+err.Error()))
		} else {
			fmt.Fprintln(out, successStyle.Render("✅ Audio player: "+b.Name()))
			if verbose {
				fmt.Fprintf(out, "   Path: %s\n", b.Path)
			}
		}
		fmt.Fprintln(out)

		// Step 5: Audio archive
		if cfg.AudioDir != "" {
			fmt.Fprintln(out, infoStyle.Render("Step 5: Checking audio archive..."))
			if err := os.MkdirAll(cfg.AudioDir, 0755); err != nil {
				fmt.Fprintln(out, warningStyle.Render("⚠️  Audio archive unavailable:"), err)
			} else {
				fmt.Fprintln(out, successStyle.Render("✅ Audio archive: "+cfg.AudioDir))
			}
			fmt.Fprintln(out)
		}

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		switch {
		case storeErr != nil:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed: %w", storeErr)
		case len(missing) > 0 || !playerOK:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Store available, but sessions cannot be fully generated or played"))
			return nil
		default:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		}
	},
}

// checkStore opens the store and reads it once, returning the number of
// saved sessions
func checkStore(path string) (int, error) {
	if path == "" {
		return 0, errors.New("no store path configured")
	}
	db, err := internal.OpenDatabase(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	store := internal.NewSessionStore(internal.NewSQLiteSlots(db))
	version, err := store.SchemaVersion()
	if err != nil {
		return 0, err
	}
	internal.LogDebug("Store schema version %d", version)

	records, err := store.List()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
