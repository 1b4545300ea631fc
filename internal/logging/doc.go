// Package logging provides slog construction plus the typed attribute and
// field-name conventions shared by every component.
package logging
