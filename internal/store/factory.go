package store

import (
	"fmt"
	"strings"
)

// Driver names accepted by NewStore, matching the store.driver config key.
const (
	DriverBolt = "bbolt"
	DriverJSON = "json"
)

// SupportedDrivers lists the execution-history backends.
var SupportedDrivers = []string{DriverBolt, DriverJSON}

// NewStore opens the execution-history backend named by driver at path.
// The bbolt driver keeps history in a single BoltDB file with a
// per-status index; the json driver rewrites one JSON file per save and
// is meant for tests and tiny deployments. driver is matched
// case-insensitively.
func NewStore(driver, path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverBolt:
		return NewBoltStore(path)
	case DriverJSON:
		return NewJSONStore(path)
	default:
		return nil, fmt.Errorf("unsupported store driver %q (supported: %s)", driver, strings.Join(SupportedDrivers, ", "))
	}
}
