package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultTLSPort is used when the target does not name a port.
	DefaultTLSPort = "443"
	// DefaultTLSTimeout bounds the TLS probe dial and handshake.
	DefaultTLSTimeout = 5 * time.Second
	// DefaultHeaderTimeout bounds each header probe request.
	DefaultHeaderTimeout = 5 * time.Second
	// DefaultPreloadTimeout bounds each preload status attempt.
	DefaultPreloadTimeout = 6 * time.Second
	// DefaultScanTimeout bounds a whole scan; probes still running at the deadline report a timeout.
	DefaultScanTimeout = 40 * time.Second
	// DefaultMaxRedirects caps redirect hops followed by the header probe.
	DefaultMaxRedirects = 10
	// DefaultUserAgent is sent by the header probe and preload client.
	DefaultUserAgent = "Mozilla/5.0 (compatible; riskscan/1.0)"
	// DefaultPreloadBaseURL is the public HSTS preload status service.
	DefaultPreloadBaseURL = "https://hstspreload.org"
	// DefaultPreloadRateLimit is the client-side request rate to the preload service.
	DefaultPreloadRateLimit = 5
)

const (
	// DefaultLogFileName is the JSON log store file under the data directory.
	DefaultLogFileName = "scan_logs.json"
	// DefaultSQLiteFileName is the SQLite log store file under the data directory.
	DefaultSQLiteFileName = "scan_logs.db"
	// DefaultLogsLimit is the number of log records returned when no limit is given.
	DefaultLogsLimit = 10
	// MaxLogsLimit caps the limit accepted by the logs API.
	MaxLogsLimit = 100
)

const (
	// ScanTimestampLayout is UTC with second precision and a literal Z.
	ScanTimestampLayout = "2006-01-02T15:04:05Z"
	// LoggedAtLayout is local time with second precision and no zone.
	LoggedAtLayout = "2006-01-02T15:04:05"
	// ExpiryDateLayout truncates a timestamp to its calendar date.
	ExpiryDateLayout = "2006-01-02"
)
