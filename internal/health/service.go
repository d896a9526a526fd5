package health

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
)

// Service is the single access point the front end uses to record and read
// health data. All durable state lives in the Database.
type Service struct {
	database  Database
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewService creates a Service with the provided dependencies. vault and
// encryptor may be nil when snapshots are not used.
func NewService(database Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock) *Service {
	return &Service{
		database:  database,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// createdOrNow defaults a zero timestamp to the current time.
func (s *Service) createdOrNow(created time.Time) time.Time {
	if created.IsZero() {
		return s.clock.Now()
	}
	return created
}

// AddBloodPressureRecord stores a blood pressure reading. A zero created
// time means now. Returns false if the record could not be stored.
func (s *Service) AddBloodPressureRecord(systolic, diastolic int, created time.Time) bool {
	r := &BloodPressureRecord{Systolic: systolic, Diastolic: diastolic, Created: s.createdOrNow(created)}
	if err := s.database.InsertBloodPressure(r); err != nil {
		s.logger.Error("adding blood pressure record", "error", err)
		return false
	}
	s.logger.Info("blood pressure recorded", "id", r.ID, "systolic", systolic, "diastolic", diastolic)
	return true
}

// AddWeightRecord stores a weight sample in whole kilograms. When isMetric
// is false the value is taken as pounds and converted first.
// Returns false if the record could not be stored.
func (s *Service) AddWeightRecord(value int, isMetric bool, created time.Time) bool {
	kg := ToKilograms(value, isMetric)
	r := &WeightRecord{Weight: kg, Created: s.createdOrNow(created)}
	if err := s.database.InsertWeight(r); err != nil {
		s.logger.Error("adding weight record", "error", err)
		return false
	}
	s.logger.Info("weight recorded", "id", r.ID, "kg", kg, "input", value, "metric", isMetric)
	return true
}

// AddCaloriesRecord stores a food intake sample in kilocalories, i.e. the
// figure printed on food packaging. Returns false if it could not be stored.
func (s *Service) AddCaloriesRecord(kCal int, created time.Time) bool {
	r := &CaloriesRecord{Calories: kCal, Created: s.createdOrNow(created)}
	if err := s.database.InsertCalories(r); err != nil {
		s.logger.Error("adding calories record", "error", err)
		return false
	}
	s.logger.Info("calories recorded", "id", r.ID, "kcal", kCal)
	return true
}

// AddPointsRecord stores a diet points sample. Returns false if it could not
// be stored.
func (s *Service) AddPointsRecord(points int, created time.Time) bool {
	r := &PointsRecord{Points: points, Created: s.createdOrNow(created)}
	if err := s.database.InsertPoints(r); err != nil {
		s.logger.Error("adding points record", "error", err)
		return false
	}
	s.logger.Info("points recorded", "id", r.ID, "points", points)
	return true
}

// Series returns the most recent limit samples of a kind, oldest first.
func (s *Service) Series(kind Kind, limit int) ([]Sample, error) {
	switch kind {
	case KindBloodPressure:
		rs, err := s.database.ListBloodPressure(limit)
		if err != nil {
			return nil, fmt.Errorf("listing blood pressure: %w", err)
		}
		return lo.Map(rs, func(r *BloodPressureRecord, _ int) Sample {
			return Sample{Value: r.Systolic, Created: r.Created}
		}), nil
	case KindWeight:
		rs, err := s.database.ListWeight(limit)
		if err != nil {
			return nil, fmt.Errorf("listing weight: %w", err)
		}
		return lo.Map(rs, func(r *WeightRecord, _ int) Sample {
			return Sample{Value: r.Weight, Created: r.Created}
		}), nil
	case KindCalories:
		rs, err := s.database.ListCalories(limit)
		if err != nil {
			return nil, fmt.Errorf("listing calories: %w", err)
		}
		return lo.Map(rs, func(r *CaloriesRecord, _ int) Sample {
			return Sample{Value: r.Calories, Created: r.Created}
		}), nil
	case KindPoints:
		rs, err := s.database.ListPoints(limit)
		if err != nil {
			return nil, fmt.Errorf("listing points: %w", err)
		}
		return lo.Map(rs, func(r *PointsRecord, _ int) Sample {
			return Sample{Value: r.Points, Created: r.Created}
		}), nil
	default:
		return nil, fmt.Errorf("unknown record kind: %q", kind)
	}
}

// Counts returns the number of stored records per kind.
func (s *Service) Counts() (map[Kind]int, error) {
	counts, err := s.database.Counts()
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	return counts, nil
}

// SnapshotSuffix is appended to every snapshot name.
const SnapshotSuffix = ".db.age"

// Backup copies the database, encrypts the copy and stores it in the vault
// as "<label>-<UTC timestamp>.db.age". Returns the snapshot name.
func (s *Service) Backup(label string) (string, error) {
	if s.vault == nil || s.encryptor == nil {
		return "", fmt.Errorf("backups require a vault and an encryptor")
	}

	tmpDir, err := os.MkdirTemp("", "health-snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO needs a path that does not exist yet.
	tmpPath := filepath.Join(tmpDir, "snapshot.db")
	if err := s.database.BackupTo(tmpPath); err != nil {
		return "", fmt.Errorf("copying database: %w", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("opening database copy: %w", err)
	}
	defer f.Close()

	var encrypted bytes.Buffer
	if err := s.encryptor.Encrypt(f, &encrypted); err != nil {
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}

	name, err := s.snapshotName(label)
	if err != nil {
		return "", err
	}
	size := int64(encrypted.Len())
	if err := s.vault.PutSnapshot(name, &encrypted, size); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	s.logger.Info("snapshot stored", "vault", s.vault.Name(), "name", name, "size", size)
	return name, nil
}

// snapshotName returns "<label>-<UTC timestamp>.db.age", adding a "-2",
// "-3", ... sequence when a snapshot from the same second already exists.
func (s *Service) snapshotName(label string) (string, error) {
	existing, err := s.vault.ListSnapshots()
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}

	base := fmt.Sprintf("%s-%s", label, s.clock.Now().UTC().Format("20060102T150405Z"))
	name := base + SnapshotSuffix
	for seq := 2; lo.Contains(existing, name); seq++ {
		name = fmt.Sprintf("%s-%d%s", base, seq, SnapshotSuffix)
	}
	return name, nil
}

// Snapshots lists the snapshots in the vault.
func (s *Service) Snapshots() ([]string, error) {
	if s.vault == nil {
		return nil, fmt.Errorf("no vault configured")
	}
	return s.vault.ListSnapshots()
}

// Restore decrypts the named snapshot into a new database file at destPath.
// It never overwrites an existing file.
func (s *Service) Restore(name, destPath string, dc DecryptionContext) error {
	if s.vault == nil {
		return fmt.Errorf("no vault configured")
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing file: %s", destPath)
	}

	var encrypted bytes.Buffer
	if err := s.vault.GetSnapshot(name, &encrypted); err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}

	if err := dc.Decrypt(&encrypted, out); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination file: %w", err)
	}

	s.logger.Info("snapshot restored", "name", name, "path", destPath)
	return nil
}
