// Command class360 is the CLI for the class360 daemon: queue and recording
// control, timetable splitting, and progress inspection over the daemon's
// Unix socket.
package main
