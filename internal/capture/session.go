package capture

import "context"

// Session is one live capture process writing to an output file. Different
// backends (USB device, network stream) implement the same surface so the
// supervisor never touches a raw process handle.
type Session interface {
	// Start launches the capture process.
	Start(ctx context.Context) error
	// Stop signals graceful termination and waits for the output file to
	// finalize within the configured grace period.
	Stop(ctx context.Context) error
	// IsAlive reports whether the capture process is still running.
	IsAlive() bool
	// OutputPath returns the file the session writes to.
	OutputPath() string
	// Done is closed when the capture process exits for any reason.
	Done() <-chan struct{}
}

// SessionFactory builds capture sessions for a source and output path.
type SessionFactory interface {
	NewSession(source, outputPath string) Session
}
