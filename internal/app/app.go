package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"health-go/internal/chart"
	"health-go/internal/config"
	"health-go/internal/database"
	"health-go/internal/encryption"
	"health-go/internal/health"
	"health-go/internal/vault"
)

// HealthApp is the application layer between the CLI and health.Service.
// It constructs all dependencies from config, exposes operations that
// accept raw command-line strings, and releases resources on Close.
type HealthApp struct {
	cfg       *config.Config
	db        health.Database
	vault     health.Vault
	encryptor health.Encryptor
	charts    *chart.Encoder
	service   *health.Service
	logger    *slogAdapter
	logFile   *os.File
	stdout    io.Writer
}

// NewHealthApp creates a fully wired HealthApp from the given config.
// With verbose set, log records are mirrored to stderr.
// The caller must call Close when done.
func NewHealthApp(cfg *config.Config, verbose bool) (*HealthApp, error) {
	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	session := uuid.NewString()[:8]
	l, logFile, err := newLogger(cfg.LogDir, session, verbose)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	return &HealthApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		charts:    chart.NewEncoder(cfg.Chart.BaseURL),
		service:   health.NewService(db, v, enc, logger, health.RealClock{}),
		logger:    logger,
		logFile:   logFile,
		stdout:    os.Stdout,
	}, nil
}

// Units returns the configured weight units.
func (a *HealthApp) Units() config.Units {
	return a.cfg.Units
}

// AddBloodPressure records a reading given as raw systolic and diastolic
// values. at is an optional RFC 3339 timestamp.
func (a *HealthApp) AddBloodPressure(systolic, diastolic, at string) error {
	sys, err := parseInt("systolic", systolic)
	if err != nil {
		return err
	}
	dia, err := parseInt("diastolic", diastolic)
	if err != nil {
		return err
	}
	created, err := parseAt(at)
	if err != nil {
		return err
	}
	if err := check(bloodPressureInput{Systolic: sys, Diastolic: dia}); err != nil {
		return err
	}

	if !a.service.AddBloodPressureRecord(sys, dia, created) {
		return ErrNotSaved
	}
	return nil
}

// AddWeight records a weight in kilograms, or pounds when isMetric is false.
func (a *HealthApp) AddWeight(value string, isMetric bool, at string) error {
	w, err := parseInt("weight", value)
	if err != nil {
		return err
	}
	created, err := parseAt(at)
	if err != nil {
		return err
	}
	if err := check(weightInput{Weight: w}); err != nil {
		return err
	}

	if !a.service.AddWeightRecord(w, isMetric, created) {
		return ErrNotSaved
	}
	return nil
}

// AddCalories records a food intake in kilocalories.
func (a *HealthApp) AddCalories(kCal, at string) error {
	c, err := parseInt("calories", kCal)
	if err != nil {
		return err
	}
	created, err := parseAt(at)
	if err != nil {
		return err
	}
	if err := check(caloriesInput{Calories: c}); err != nil {
		return err
	}

	if !a.service.AddCaloriesRecord(c, created) {
		return ErrNotSaved
	}
	return nil
}

// AddPoints records a diet points value.
func (a *HealthApp) AddPoints(points, at string) error {
	p, err := parseInt("points", points)
	if err != nil {
		return err
	}
	created, err := parseAt(at)
	if err != nil {
		return err
	}
	if err := check(pointsInput{Points: p}); err != nil {
		return err
	}

	if !a.service.AddPointsRecord(p, created) {
		return ErrNotSaved
	}
	return nil
}

// ComputePoints returns the diet points of a food. With save set the
// result is also recorded.
func (a *HealthApp) ComputePoints(kCal, fat, fiber string, save bool, at string) (int, error) {
	var in foodInput
	var err error
	if in.Calories, err = parseInt("calories", kCal); err != nil {
		return 0, err
	}
	if in.Fat, err = parseInt("fat", fat); err != nil {
		return 0, err
	}
	if in.Fiber, err = parseInt("fiber", fiber); err != nil {
		return 0, err
	}

	// Negative amounts get the calculator's own error.
	points, err := health.ComputePoints(in.Calories, in.Fat, in.Fiber)
	if err != nil {
		return 0, err
	}
	if err := check(in); err != nil {
		return 0, err
	}

	if save {
		created, err := parseAt(at)
		if err != nil {
			return 0, err
		}
		if !a.service.AddPointsRecord(points, created) {
			return points, ErrNotSaved
		}
	}
	return points, nil
}

// Average folds a new sample into an existing moving average.
func (a *HealthApp) Average(newValue, oldAverage string, depth, precision int) (float64, error) {
	n, err := parseInt("new value", newValue)
	if err != nil {
		return 0, err
	}
	old, err := parseFloat("old average", oldAverage)
	if err != nil {
		return 0, err
	}
	return health.NewMovingAverage(n, old, depth, precision)
}

// Trend returns the moving average over the most recent limit records of kind.
func (a *HealthApp) Trend(kind string, limit int) ([]health.TrendPoint, error) {
	k, err := health.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, ErrMalformedInput)
	}
	samples, err := a.series(k, limit)
	if err != nil {
		return nil, err
	}
	return health.Trend(samples), nil
}

// series returns the most recent limit samples of k. Weights are shown in
// pounds when the configured units are imperial.
func (a *HealthApp) series(k health.Kind, limit int) ([]health.Sample, error) {
	samples, err := a.service.Series(k, limit)
	if err != nil {
		return nil, err
	}
	if k == health.KindWeight && !a.cfg.Units.IsMetric() {
		samples = health.SamplesInPounds(samples)
	}
	return samples, nil
}

// Chart returns a chart URL for the most recent records of kind. Zero
// width, height or limit fall back to the configured values.
func (a *HealthApp) Chart(kind string, width, height, limit int) (string, error) {
	k, err := health.ParseKind(kind)
	if err != nil {
		return "", fmt.Errorf("%w: %w", err, ErrMalformedInput)
	}

	width = lo.Ternary(width == 0, a.cfg.Chart.Width, width)
	height = lo.Ternary(height == 0, a.cfg.Chart.Height, height)
	limit = lo.Ternary(limit == 0, a.cfg.Chart.Samples, limit)

	samples, err := a.series(k, limit)
	if err != nil {
		return "", err
	}
	values := lo.Map(samples, func(s health.Sample, _ int) int { return s.Value })

	return a.charts.LineGraph(width, height, values)
}

// Export writes every record as CSV to output, or to stdout when output is
// empty or "-". With encrypt set the CSV is encrypted to the public key.
func (a *HealthApp) Export(output, delimiter string, encrypt bool) error {
	delim, err := parseDelimiter(delimiter)
	if err != nil {
		return err
	}
	if encrypt && !a.encryptor.IsConfigured() {
		return fmt.Errorf("encryption keys not configured: run 'health keys init'")
	}

	var csv bytes.Buffer
	if err := a.service.ToCSV(&csv, delim); err != nil {
		return err
	}

	if output == "" || output == "-" {
		if err := a.writeExport(a.stdout, &csv, encrypt); err != nil {
			return err
		}
		a.logger.Info("records exported", "output", "stdout", "encrypted", encrypt)
		return nil
	}

	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := a.writeExport(f, &csv, encrypt); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(output)
		return fmt.Errorf("closing export file: %w", err)
	}

	a.logger.Info("records exported", "output", output, "encrypted", encrypt)
	return nil
}

func (a *HealthApp) writeExport(w io.Writer, csv *bytes.Buffer, encrypt bool) error {
	if encrypt {
		if err := a.encryptor.Encrypt(csv, w); err != nil {
			return fmt.Errorf("encrypting export: %w", err)
		}
		return nil
	}
	if _, err := csv.WriteTo(w); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// Status summarizes the store, keys and vault.
type Status struct {
	Counts         map[health.Kind]int
	Schema         string
	KeysConfigured bool
	Vault          string
	Snapshots      int
	VaultError     string
}

// Status reports record counts, schema state, and key and vault health.
func (a *HealthApp) Status() (*Status, error) {
	counts, err := a.service.Counts()
	if err != nil {
		return nil, err
	}

	st := &Status{
		Counts:         counts,
		Schema:         "current",
		KeysConfigured: a.encryptor.IsConfigured(),
		Vault:          a.vault.Name(),
	}
	if err := a.db.CheckMigrations(); err != nil {
		st.Schema = err.Error()
	}

	if err := a.vault.ValidateSetup(); err != nil {
		st.VaultError = err.Error()
		return st, nil
	}
	names, err := a.service.Snapshots()
	if err != nil {
		st.VaultError = err.Error()
		return st, nil
	}
	st.Snapshots = len(names)
	return st, nil
}

// InitKeys generates the encryption key pair protected by passphrase.
func (a *HealthApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		if errors.Is(err, encryption.ErrKeysExist) {
			return fmt.Errorf("keys already exist at %s: %w", filepath.Dir(a.cfg.Encryption.PublicKeyPath), err)
		}
		return fmt.Errorf("setting up encryption: %w", err)
	}
	a.logger.Info("encryption keys created")
	return nil
}

// Backup stores an encrypted snapshot of the database in the vault and
// returns its name.
func (a *HealthApp) Backup() (string, error) {
	if !a.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys not configured: run 'health keys init'")
	}
	return a.service.Backup(a.cfg.Vault.Label)
}

// Snapshots lists the snapshots in the vault.
func (a *HealthApp) Snapshots() ([]string, error) {
	return a.service.Snapshots()
}

// Restore decrypts the named snapshot into a new database file at output.
func (a *HealthApp) Restore(name, output, passphrase string) error {
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	dest, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	return a.service.Restore(name, dest, dc)
}

// Close closes the database and the log file.
func (a *HealthApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
