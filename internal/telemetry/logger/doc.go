// Package logger provides structured logging for layercfg.
//
// This package wraps zap behind a small key/value Logger interface:
//
//   - zap.go: Zap core construction (encoders, levels, sinks)
//   - logger.go: Logger interface and the sugared implementation
//   - redact.go: Sensitive data redaction
//
// Every key/value pair passes through redaction before it reaches zap, so
// configuration dumps never print passwords, tokens or DSN credentials.
package logger
