// Package log provides the structured logging every component in this
// module shares, mirroring the teacher's pkg/log: a package-level
// zerolog.Logger, an Init(Config) to configure it, and WithComponent /
// WithRunID helpers for component-scoped child loggers.
//
// The default logger is Disabled, so importing this module is silent
// until an embedder calls Init. Once enabled, the manager logs assembled
// areas and recorded assembly failures at debug level and its first fatal
// error at error level; the reference assembler logs objects skipped for
// an invalid location at debug level and warns when an inner ring has no
// enclosing outer ring. The members database does not log, and no line is
// written for incomplete relations or order violations.
package log
