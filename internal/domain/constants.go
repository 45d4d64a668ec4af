package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Service constants
const (
	// DefaultServiceBaseURL is the hosted Mathool API root
	DefaultServiceBaseURL = "https://mathool.onrender.com/api/v1/math"
	// DefaultServiceTimeoutSeconds bounds a single request
	DefaultServiceTimeoutSeconds = 30
	// DefaultServiceRetries is the number of extra attempts after a transport fault
	DefaultServiceRetries = 2
	// MaxServiceRetries caps service.retries
	MaxServiceRetries = 10
)

// Storage constants
const (
	// StorageBackendFile keeps one JSON file per key
	StorageBackendFile = "file"
	// StorageBackendSQLite keeps keys in a SQLite table
	StorageBackendSQLite = "sqlite"
	// StorageBackendMemory keeps nothing across runs
	StorageBackendMemory = "memory"
	// DefaultHistoryKey is the store key holding the serialized history
	DefaultHistoryKey = "Results"
)

// Cache constants
const (
	// DefaultCacheTTL is how long a cached response stays valid
	DefaultCacheTTL = 10 * time.Minute
	// DefaultCacheMaxCost is the byte budget of the response cache
	DefaultCacheMaxCost = 1 << 20
)

// Fill constants
const (
	// DefaultFillConcurrency bounds concurrent fill requests
	DefaultFillConcurrency = 4
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
