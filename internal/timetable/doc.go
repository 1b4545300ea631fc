// Package timetable reads weekly classroom schedules and drives the two
// automatic job producers: the minute-tick recording scheduler and the
// full-day recording splitter.
package timetable
