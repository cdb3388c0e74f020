package logger

import "log/slog"

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Part groups the identity of a multipart part under the key "part".
func Part(name, filename string, file bool) slog.Attr {
	return slog.Group("part",
		slog.String("name", name),
		slog.String("filename", filename),
		slog.Bool("file", file),
	)
}

// Size records a byte count under the key "size".
func Size(n int64) slog.Attr {
	return slog.Int64("size", n)
}
