// Package toolrunner runs one external executable to completion, treating it
// as an opaque success/failure boundary that captures textual output.
package toolrunner
