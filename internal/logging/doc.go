// Package logging provides murmur's slog construction helpers: a console
// handler for interactive use, a JSON handler for machine consumption, and
// standardized attribute keys shared across components.
package logging
