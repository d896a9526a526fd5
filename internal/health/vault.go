package health

import "io"

// Vault stores encrypted database snapshots by name.
type Vault interface {
	// Name identifies the vault in logs and status output.
	Name() string

	// PutSnapshot stores a snapshot. size is the number of bytes read from r.
	// Storing an existing name replaces it.
	PutSnapshot(name string, r io.Reader, size int64) error

	// GetSnapshot writes the named snapshot to w.
	GetSnapshot(name string, w io.Writer) error

	// ListSnapshots returns the stored snapshot names in lexical order.
	ListSnapshots() ([]string, error)

	// ValidateSetup verifies that the vault is accessible.
	ValidateSetup() error
}
