// Package scheduler runs the bounded-concurrency worker loop that drains the
// priority job queue and feeds jobs to the pipeline executor.
package scheduler
