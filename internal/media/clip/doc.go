// Package clip performs stream-copy extraction of media segments.
package clip
