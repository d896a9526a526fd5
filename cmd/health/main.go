package main

import (
	"fmt"
	"os"

	"health-go/internal/app"
	"health-go/internal/config"
	"health-go/internal/health"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a HealthApp. The caller must defer app.Close().
func newApp(cmd *cobra.Command) (*app.HealthApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewHealthApp(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "health",
	Short:        "Personal health metrics logger",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		installID := uuid.New().String()
		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID: %s\n", installID)
		fmt.Printf("Base Dir:   %s\n", defaults["base_dir"])
		fmt.Println("Run 'health keys init' before taking backups.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		m := &config.Manager{}
		if err := m.Write(os.Stdout, cfg); err != nil {
			return err
		}

		help, err := config.EnvHelp()
		if err != nil {
			return fmt.Errorf("describing environment: %w", err)
		}
		fmt.Printf("\n%s\n", help)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the backup key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("New passphrase: ", true)
		if err != nil {
			return err
		}
		if err := a.InitKeys(pass); err != nil {
			return err
		}

		fmt.Println("Encryption keys created.")
		return nil
	},
}

// record commands
var bpCmd = &cobra.Command{
	Use:   "bp SYSTOLIC DIASTOLIC",
	Short: "Record a blood pressure reading",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddBloodPressure(args[0], args[1], at); err != nil {
			return err
		}
		fmt.Printf("Recorded blood pressure %s/%s\n", args[0], args[1])
		return nil
	},
}

var weightCmd = &cobra.Command{
	Use:   "weight VALUE",
	Short: "Record a weight",
	Long:  "Record a weight. The value is read in the configured units unless --metric or --imperial is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")
		imperial, _ := cmd.Flags().GetBool("imperial")
		metric, _ := cmd.Flags().GetBool("metric")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		isMetric := a.Units().IsMetric()
		switch {
		case metric:
			isMetric = true
		case imperial:
			isMetric = false
		}

		if err := a.AddWeight(args[0], isMetric, at); err != nil {
			return err
		}
		unit := "kg"
		if !isMetric {
			unit = "lb"
		}
		fmt.Printf("Recorded weight %s %s\n", args[0], unit)
		return nil
	},
}

var caloriesCmd = &cobra.Command{
	Use:   "calories KCAL",
	Short: "Record food intake in kilocalories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddCalories(args[0], at); err != nil {
			return err
		}
		fmt.Printf("Recorded %s kcal\n", args[0])
		return nil
	},
}

var pointsCmd = &cobra.Command{
	Use:   "points POINTS",
	Short: "Record diet points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddPoints(args[0], at); err != nil {
			return err
		}
		fmt.Printf("Recorded %s points\n", args[0])
		return nil
	},
}

// calculators
var computePointsCmd = &cobra.Command{
	Use:   "compute-points KCAL FAT FIBER",
	Short: "Compute the diet points of a food",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		save, _ := cmd.Flags().GetBool("save")
		at, _ := cmd.Flags().GetString("at")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		points, err := a.ComputePoints(args[0], args[1], args[2], save, at)
		if err != nil {
			return err
		}
		fmt.Printf("%d points\n", points)
		if save {
			fmt.Println("Saved.")
		}
		return nil
	},
}

var averageCmd = &cobra.Command{
	Use:   "average NEW OLD",
	Short: "Fold a new sample into a moving average",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetInt("depth")
		precision, _ := cmd.Flags().GetInt("precision")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		avg, err := a.Average(args[0], args[1], depth, precision)
		if err != nil {
			return err
		}
		fmt.Println(avg)
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend KIND",
	Short: "Show the moving average of recent records",
	Long:  "Show the moving average of recent records. KIND is one of bp, weight, calories, points.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		points, err := a.Trend(args[0], limit)
		if err != nil {
			return err
		}

		if len(points) == 0 {
			fmt.Println("No records.")
			return nil
		}

		for _, p := range points {
			fmt.Printf("%s  %6d  %8.1f\n",
				p.Created.Local().Format("2006-01-02 15:04"),
				p.Value,
				p.Average,
			)
		}
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart KIND",
	Short: "Print a line chart URL of recent records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		url, err := a.Chart(args[0], width, height, limit)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Export(output, delimiter, encrypt); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if output != "" && output != "-" {
			fmt.Printf("Exported to %s\n", output)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts and backup setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Status()
		if err != nil {
			return err
		}

		for _, kind := range health.Kinds {
			fmt.Printf("%-15s %d\n", kind, st.Counts[kind])
		}
		fmt.Printf("\nSchema:    %s\n", st.Schema)
		fmt.Printf("Keys:      %s\n", yesNo(st.KeysConfigured))
		fmt.Printf("Vault:     %s\n", st.Vault)
		if st.VaultError != "" {
			fmt.Printf("Error:     %s\n", st.VaultError)
		} else {
			fmt.Printf("Snapshots: %d\n", st.Snapshots)
		}
		return nil
	},
}

// backup commands
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store an encrypted snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, err := a.Backup()
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Stored snapshot %s\n", name)
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.Snapshots()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Decrypt a snapshot into a new database file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase: ", false)
		if err != nil {
			return err
		}
		if err := a.Restore(args[0], output, pass); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored %s to %s\n", args[0], output)
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror log output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// record commands
	for _, c := range []*cobra.Command{bpCmd, weightCmd, caloriesCmd, pointsCmd, computePointsCmd} {
		c.Flags().String("at", "", "Record time in RFC 3339 (default now)")
	}
	weightCmd.Flags().Bool("imperial", false, "Value is in pounds")
	weightCmd.Flags().Bool("metric", false, "Value is in kilograms")
	weightCmd.MarkFlagsMutuallyExclusive("imperial", "metric")
	computePointsCmd.Flags().Bool("save", false, "Record the computed points")

	averageCmd.Flags().Int("depth", health.DefaultSampleDepth, "Number of samples the average spans")
	averageCmd.Flags().Int("precision", health.DefaultPrecision, "Round changes to 1/precision")
	trendCmd.Flags().IntP("limit", "n", 30, "Number of recent records")
	chartCmd.Flags().Int("width", 0, "Chart width in pixels (default from config)")
	chartCmd.Flags().Int("height", 0, "Chart height in pixels (default from config)")
	chartCmd.Flags().IntP("limit", "n", 0, "Number of recent records (default from config)")

	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringP("delimiter", "d", ",", "Field delimiter, a single character or \"tab\"")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the export to the backup public key")

	restoreCmd.Flags().StringP("output", "o", "", "Path of the new database file")
	restoreCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(bpCmd)
	rootCmd.AddCommand(weightCmd)
	rootCmd.AddCommand(caloriesCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(computePointsCmd)
	rootCmd.AddCommand(averageCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(restoreCmd)
}
