package constants

const (
	AppName            = "trackly"
	DefaultKeyringUser = "database-connection"
	Version            = "v0.3.0"

	// DateFormat is the calendar day format used for records and the CLI (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MaxTitleLength caps category titles and tracker names as entered in the UI
	MaxTitleLength = 38

	// DefaultLocale drives collation when no preference is stored
	DefaultLocale = "en"

	// Environment variables
	EnvDebug        = "TRACKLY_DEBUG"
	EnvDBConnection = "TRACKLY_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "trackly-"
	BackupFileSuffix = ".db"

	// Lock constants
	LockfileName = "trackly.lock"

	// Preference keys
	PrefLastCategoryID = "last_category_id"
	PrefLocale         = "locale"
)
