// Package xlog provides the configurable debug/assertion sink picox
// components call into on precondition violations. It wraps zerolog
// behind a package-level default instance, the way rclone's fs/log
// wraps its own logger.
package xlog

import (
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetOutput redirects the assertion/debug sink to w, mirroring picox's
// "configurable character sink" for assertion-failure text.
func SetOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel adjusts the minimum severity that reaches the sink.
func SetLevel(level zerolog.Level) {
	logger = logger.Level(level)
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	logger.Debug().Msgf(format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...any) {
	logger.Warn().Msgf(format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...any) {
	logger.Error().Msgf(format, args...)
}

// AssertionFailedFunc matches the shape of picox's x_assertion_failed hook:
// expr is the failed condition's source text, msg is an optional caller
// message, and the remaining fields locate the call site.
type AssertionFailedFunc func(expr, msg, funcName, file string, line int)

// assertionHook runs before Assert panics. Replacing it lets an embedder
// redirect assertion reporting without altering control flow.
var assertionHook AssertionFailedFunc = defaultAssertionHook

// SetAssertionHook installs a custom pre-abort hook.
func SetAssertionHook(fn AssertionFailedFunc) {
	if fn == nil {
		fn = defaultAssertionHook
	}
	assertionHook = fn
}

func defaultAssertionHook(expr, msg, funcName, file string, line int) {
	logger.Error().
		Str("expr", expr).
		Str("func", funcName).
		Str("file", file).
		Int("line", line).
		Msg(msg)
}

// Assert is the caller-bug boundary from spec §7/§4.8: a violated
// precondition (null handle, misaligned pointer, out-of-range index) is
// never returned as an error value. It runs the assertion hook and
// panics. Callers pass the failed condition as source text for
// diagnostics.
func Assert(cond bool, expr string, msg string) {
	if cond {
		return
	}
	pc, file, line, _ := runtime.Caller(1)
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
	}
	assertionHook(expr, msg, funcName, file, line)
	panic("picox: assertion failed: " + expr + ": " + msg)
}
