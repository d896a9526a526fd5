package health

// Database provides the record storage operations.
// Inserts must be mutually exclusive: at most one write is in flight at a time.
type Database interface {
	// Record inserts. Each populates the record's ID on success.

	InsertBloodPressure(r *BloodPressureRecord) error
	InsertWeight(r *WeightRecord) error
	InsertCalories(r *CaloriesRecord) error
	InsertPoints(r *PointsRecord) error

	// Time-series reads. Each returns the most recent limit records (all of
	// them when limit <= 0), oldest first.

	ListBloodPressure(limit int) ([]*BloodPressureRecord, error)
	ListWeight(limit int) ([]*WeightRecord, error)
	ListCalories(limit int) ([]*CaloriesRecord, error)
	ListPoints(limit int) ([]*PointsRecord, error)

	// Counts returns the number of stored records per kind.
	Counts() (map[Kind]int, error)

	// BackupTo writes a consistent copy of the database to destPath,
	// which must not exist yet.
	BackupTo(destPath string) error

	// CheckMigrations verifies that the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
