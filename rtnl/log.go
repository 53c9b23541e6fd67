package rtnl

import "log/slog"

// logger is the logger type the typed parsers take: an alias for
// *slog.Logger. A nil logger disables logUnrecognized's output.
type logger = *slog.Logger

// logUnrecognized records an attribute type a parser's switch doesn't
// handle. This is expected: new kernels add attributes continuously, and a
// parser ignoring one it doesn't know about is the forward-compatible
// behavior (spec.md §9).
func logUnrecognized(log logger, what string, attrType uint16) {
	if log == nil {
		return
	}
	log.Debug("unrecognized attribute", "in", what, "type", attrType)
}
