/*
Package dbconfig is a micropackage that contains storage DB configuration options.
*/
package dbconfig

// Supported DB types.
const (
	BoltDB     = "boltdb"
	InMemoryDB = "inmemory"
)

type (
	// DBConfiguration describes configuration for DB. Supported types:
	// [BoltDB] or [InMemoryDB] (data is lost on exit).
	DBConfiguration struct {
		Type          string        `yaml:"Type"`
		BoltDBOptions BoltDBOptions `yaml:"BoltDBOptions"`
	}
	// BoltDBOptions configuration for BoltDB.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
)
