// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing.
//   - Development: colored console output for human readability.
//
// Packages that log do so through a *Logger rather than fmt.Println: the
// loader logs a transform failure, the transport logs an egress failure,
// and the runtime logs a timer callback error, each as a Warn line. The
// dispatcher, scope and sanitize packages take no logger and log nothing.
package logging
