// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate command lifecycle events into concise messages so that
// job feedback stays readable while detailed telemetry continues to flow
// through structured loggers.
package ui
