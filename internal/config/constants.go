package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./tome-tracker.db"

	// DefaultMirrorPath is the default path for the offline mirror database
	DefaultMirrorPath = "./tome-mirror.db"

	// DefaultProfilePath is the client profile read by the mirror commands
	DefaultProfilePath = "./tome.ini"
)
