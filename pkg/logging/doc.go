// Package logging provides structured logging configuration for marketd.
//
// This package wraps log/slog to provide consistent logging across all
// marketd components. It supports configurable log levels and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 8080)
//	logger.Error("seed step failed", "step", name, "error", err)
//
// # Integration
//
// Components accept a *slog.Logger in their constructor or via a setter.
// If no logger is provided, use logging.Nop() for a no-op logger. Subsystems
// tag their loggers with logging.Component(log, "session") so log lines can
// be filtered per component.
package logging
