// Package daemon wires the queue, pipeline, capture, and timetable
// subsystems into one single-instance background service with an HTTP
// control surface.
package daemon
