// Package log provides the structured logging facade used across the
// counter service.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by the
// standard library slog via a custom handler that feeds the package's
// formatters and outputs, so every component renders the same way.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("http"), log.Str("addr", ":8080"))
//	l.Info("server started", log.Int("port", 8080))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config supporting JSON or
// text formatting, console/file/null outputs, field redaction and
// per-message sampling.
//
// # Interop
//
// Libraries expecting *log.Logger can use ToStdLogger or RedirectStdLog.
package log
