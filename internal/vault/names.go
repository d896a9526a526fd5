package vault

import (
	"fmt"
	"strings"
)

// validateName rejects snapshot names that could escape the vault or
// collide with temp files.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid snapshot name: %q", name)
	}
	return nil
}
