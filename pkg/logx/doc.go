// Package logx is the structured logging layer used across taskloop.
//
// It wraps zerolog behind a small value-type Logger with closure-based
// fields, console and file sinks that can be swapped at runtime via
// Service.Apply, and a rate-limited derived logger for call sites that can
// fire in tight loops (see Logger.Limited).
package logx
