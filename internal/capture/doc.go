// Package capture supervises live classroom recording sessions: at most one
// capture process per classroom, with automatic deregistration when the
// process or its device goes away.
package capture
