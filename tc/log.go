package tc

import "log/slog"

// logger is the narrow logging surface the typed parsers need.
type logger = *slog.Logger

// logUnrecognized records an attribute type a parser's switch doesn't
// handle — expected as the kernel grows new attributes (spec.md §9).
func logUnrecognized(log logger, what string, attrType uint16) {
	if log == nil {
		return
	}
	log.Debug("unrecognized attribute", "in", what, "type", attrType)
}
