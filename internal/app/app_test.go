package app

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"health-go/internal/config"
	"health-go/internal/encryption"
	"health-go/internal/health"
)

// failingEncryptor writes part of its output and then fails.
type failingEncryptor struct {
	*encryption.TestEncryptor
}

func (failingEncryptor) Encrypt(_ io.Reader, w io.Writer) error {
	if _, err := w.Write([]byte("partial")); err != nil {
		return err
	}
	return errors.New("disk full")
}

func newTestApp(t *testing.T) (*HealthApp, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewConfig("6f1c2a9e-3b47-4d8a-9e0f-2c5b7a1d4e63", dir)
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Vault = config.VaultConfig{Type: "memory", Label: "test"}
	cfg.Encryption = config.EncryptionConfig{Type: "test"}

	a, err := NewHealthApp(cfg, false)
	if err != nil {
		t.Fatalf("NewHealthApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })

	var out bytes.Buffer
	a.stdout = &out
	return a, &out
}

func TestHealthApp_AddBloodPressure(t *testing.T) {
	tests := []struct {
		name      string
		sys, dia  string
		at        string
		wantErr   error
		wantSaved bool
	}{
		{name: "valid reading", sys: "120", dia: "80", wantSaved: true},
		{name: "whitespace is trimmed", sys: " 118 ", dia: "76", wantSaved: true},
		{name: "backdated", sys: "130", dia: "85", at: "2024-01-15T07:00:00Z", wantSaved: true},
		{name: "not a number", sys: "12O", dia: "80", wantErr: ErrMalformedInput},
		{name: "bad timestamp", sys: "120", dia: "80", at: "yesterday", wantErr: ErrMalformedInput},
		{name: "out of range", sys: "400", dia: "80", wantErr: health.ErrInvalidArgument},
		{name: "diastolic above systolic", sys: "80", dia: "120", wantErr: health.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)

			err := a.AddBloodPressure(tt.sys, tt.dia, tt.at)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddBloodPressure() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("AddBloodPressure() error = %v", err)
			}

			st, err := a.Status()
			if err != nil {
				t.Fatalf("Status() error = %v", err)
			}
			want := 0
			if tt.wantSaved {
				want = 1
			}
			if st.Counts[health.KindBloodPressure] != want {
				t.Errorf("blood pressure count = %d, want %d", st.Counts[health.KindBloodPressure], want)
			}
		})
	}
}

func TestHealthApp_AddOtherRecords(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.AddWeight("150", false, ""); err != nil {
		t.Fatalf("AddWeight() error = %v", err)
	}
	if err := a.AddCalories("450", ""); err != nil {
		t.Fatalf("AddCalories() error = %v", err)
	}
	if err := a.AddPoints("6", ""); err != nil {
		t.Fatalf("AddPoints() error = %v", err)
	}
	if err := a.AddWeight("heavy", true, ""); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("AddWeight(heavy) error = %v, want ErrMalformedInput", err)
	}
	if err := a.AddCalories("-5", ""); !errors.Is(err, health.ErrInvalidArgument) {
		t.Errorf("AddCalories(-5) error = %v, want ErrInvalidArgument", err)
	}

	st, err := a.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	for _, kind := range []health.Kind{health.KindWeight, health.KindCalories, health.KindPoints} {
		if st.Counts[kind] != 1 {
			t.Errorf("%s count = %d, want 1", kind, st.Counts[kind])
		}
	}

	points, err := a.Trend("weight", 0)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 1 || points[0].Value != 68 {
		t.Errorf("Trend(weight) = %+v, want one 68 kg sample", points)
	}
}

func TestHealthApp_ImperialUnits(t *testing.T) {
	a, _ := newTestApp(t)
	a.cfg.Units = config.Imperial

	if err := a.AddWeight("150", false, ""); err != nil {
		t.Fatalf("AddWeight() error = %v", err)
	}

	points, err := a.Trend("weight", 0)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 1 || points[0].Value != 150 || points[0].Average != 150 {
		t.Errorf("Trend(weight) = %+v, want one 150 lb sample", points)
	}

	// Only weights are converted.
	if err := a.AddCalories("300", ""); err != nil {
		t.Fatalf("AddCalories() error = %v", err)
	}
	points, err = a.Trend("calories", 0)
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 1 || points[0].Value != 300 {
		t.Errorf("Trend(calories) = %+v, want one 300 kcal sample", points)
	}
}

func TestHealthApp_ComputePoints(t *testing.T) {
	a, _ := newTestApp(t)

	got, err := a.ComputePoints("250", "12", "2", false, "")
	if err != nil {
		t.Fatalf("ComputePoints() error = %v", err)
	}
	if got != 6 {
		t.Errorf("ComputePoints() = %d, want 6", got)
	}

	if _, err := a.ComputePoints("-1", "0", "0", false, ""); !errors.Is(err, health.ErrInvalidArgument) {
		t.Errorf("ComputePoints(-1) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.ComputePoints("lots", "0", "0", false, ""); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("ComputePoints(lots) error = %v, want ErrMalformedInput", err)
	}

	if _, err := a.ComputePoints("100", "0", "10", true, ""); err != nil {
		t.Fatalf("ComputePoints(save) error = %v", err)
	}
	st, err := a.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Counts[health.KindPoints] != 1 {
		t.Errorf("points count = %d, want 1 after save", st.Counts[health.KindPoints])
	}
}

func TestHealthApp_Average(t *testing.T) {
	a, _ := newTestApp(t)

	got, err := a.Average("110", "100", health.DefaultSampleDepth, health.DefaultPrecision)
	if err != nil {
		t.Fatalf("Average() error = %v", err)
	}
	if got != 101 {
		t.Errorf("Average() = %v, want 101", got)
	}

	if _, err := a.Average("110", "abc", 10, 10); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Average(abc) error = %v, want ErrMalformedInput", err)
	}
	if _, err := a.Average("110", "100", 0, 10); !errors.Is(err, health.ErrInvalidArgument) {
		t.Errorf("Average(depth 0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestHealthApp_Chart(t *testing.T) {
	a, _ := newTestApp(t)
	for _, v := range []string{"100", "50"} {
		if err := a.AddCalories(v, ""); err != nil {
			t.Fatalf("AddCalories() error = %v", err)
		}
	}

	got, err := a.Chart("kcal", 0, 0, 0)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if !strings.HasPrefix(got, config.DefaultChartURL+"cht=lc&chs=600x300&chd=s:") {
		t.Errorf("Chart() = %q", got)
	}

	if _, err := a.Chart("steps", 0, 0, 0); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Chart(steps) error = %v, want ErrMalformedInput", err)
	}
	if _, err := a.Chart("kcal", 2000, 100, 0); err == nil {
		t.Error("Chart() expected error for oversized chart")
	}
}

func TestHealthApp_Export(t *testing.T) {
	t.Run("to stdout", func(t *testing.T) {
		a, out := newTestApp(t)
		if err := a.AddPoints("3", "2024-01-15T10:30:00Z"); err != nil {
			t.Fatalf("AddPoints() error = %v", err)
		}

		if err := a.Export("", "tab", false); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		want := "record\tcreated\tsystolic\tdiastolic\tweight_kg\tcalories\tpoints\n" +
			"points\t2024-01-15T10:30:00Z\t\t\t\t\t3\n"
		if out.String() != want {
			t.Errorf("Export() wrote %q, want %q", out.String(), want)
		}
	})

	t.Run("encrypted to file", func(t *testing.T) {
		a, _ := newTestApp(t)
		path := filepath.Join(t.TempDir(), "export.csv.age")

		if err := a.Export(path, ",", true); err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading export: %v", err)
		}
		if !bytes.HasPrefix(data, []byte("HLTHTEST")) {
			t.Errorf("export was not encrypted: %q", data)
		}

		if err := a.Export(path, ",", false); err == nil {
			t.Error("Export() expected error for existing file")
		}
	})

	t.Run("failed encryption leaves no file", func(t *testing.T) {
		a, _ := newTestApp(t)
		a.encryptor = failingEncryptor{encryption.NewTestEncryptor()}
		path := filepath.Join(t.TempDir(), "export.csv.age")

		if err := a.Export(path, ",", true); err == nil {
			t.Fatal("Export() expected error from encryptor")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("partial export should be removed, stat error = %v", err)
		}
	})

	t.Run("bad delimiter", func(t *testing.T) {
		a, _ := newTestApp(t)
		if err := a.Export("", ";;", false); !errors.Is(err, ErrMalformedInput) {
			t.Errorf("Export() error = %v, want ErrMalformedInput", err)
		}
	})
}

func TestHealthApp_BackupAndRestore(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.AddBloodPressure("121", "79", ""); err != nil {
		t.Fatalf("AddBloodPressure() error = %v", err)
	}

	name, err := a.Backup()
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !strings.HasPrefix(name, "test-") || !strings.HasSuffix(name, health.SnapshotSuffix) {
		t.Errorf("Backup() name = %q", name)
	}

	st, err := a.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Snapshots != 1 || st.Schema != "current" || !st.KeysConfigured || st.Vault != "test" {
		t.Errorf("Status() = %+v", st)
	}

	dest := filepath.Join(t.TempDir(), "restored.db")
	if err := a.Restore(name, dest, "ignored"); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("restored database missing: %v", err)
	}
}
