// Package constants provides shared constants used across acscan components.
package constants

import "time"

// Scanning defaults
const (
	// DefaultChunkSize is the read size used when streaming files and stdin
	// through a session.
	DefaultChunkSize = 64 * 1024

	// MinChunkSize is the smallest accepted chunk size
	MinChunkSize = 1

	// DefaultWorkers is the default number of files scanned concurrently.
	// Zero selects runtime.GOMAXPROCS.
	DefaultWorkers = 0

	// DefaultStopChars is the stop-character set used by `acscan check`
	DefaultStopChars = "'\";`|&$<>(){}"
)

// Shutdown and reload timing
const (
	// GracefulShutdownTimeout is the time to wait for the metrics server to shut down
	GracefulShutdownTimeout = 2 * time.Second

	// WatchDebounce coalesces bursts of file system events for one pattern file
	WatchDebounce = 100 * time.Millisecond

	// MetricsReadHeaderTimeout bounds header reads on the metrics endpoint
	MetricsReadHeaderTimeout = 5 * time.Second
)

// Channel buffer sizes
//
// Signal channels hold one item so the sender never blocks.
const (
	// SignalChannelBuffer is the buffer size for OS signal channels
	SignalChannelBuffer = 1

	// PcapWriteBuffer is the packet queue size of the matched-flow writer
	PcapWriteBuffer = 1000
)
