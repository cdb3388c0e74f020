package multipart

import (
	"log/slog"
	"net/http"
)

// Config wires a Parser to its input description and to the application.
// Callbacks are invoked synchronously from Write and End.
type Config struct {
	// Headers are the headers of the message carrying the multipart body.
	// Content-Type must hold the boundary.
	Headers http.Header
	// IsFile classifies parts. DefaultIsFile is used when nil.
	IsFile   Classifier
	Settings Settings

	// OnField receives a complete field value. The value is owned by the
	// callee.
	OnField func(info PartInfo, value []byte)
	// OnFile is called once a file part starts and returns the sink its body
	// is streamed to. A nil sink discards the body.
	OnFile func(info PartInfo) FileSink
	// OnError is called at most once, with the error that halted parsing.
	OnError func(err error)
	// OnDone is called from End if the final boundary was reached.
	OnDone func()

	// Logger receives debug records about parts and a warning on failure.
	// Nothing is logged when nil.
	Logger *slog.Logger
}
