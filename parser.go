package multipart

import (
	"fmt"
	"log/slog"

	"github.com/indigo-web/multipartparser/internal/headers"
	"github.com/indigo-web/multipartparser/internal/logger"
)

// Parser decodes a multipart/form-data body in streaming mode. The body may be
// written in chunks of any size, split at any offset: fields are delivered once
// complete, file bodies are forwarded to their sinks as soon as they are known
// not to hold a boundary. Nothing but field values and a few bytes of a
// possible boundary is retained between writes.
//
// Parser must not be used concurrently. It is not reusable after End or a
// failure.
type Parser struct {
	state  parserState
	config Config
	isFile Classifier
	log    *slog.Logger
	err    error

	limits  limiter
	headers *headers.Parser

	// dashBoundary precedes the first part, bodyDelimiter terminates every part
	dashBoundary, bodyDelimiter *delimiter
	matched                     int

	part  PartInfo
	file  bool
	sink  FileSink
	field []byte
}

// NewParser returns new *Parser. A missing or malformed boundary is reported
// with ErrInvalidBoundary on the first call to Write or End.
func NewParser(config Config) *Parser {
	p := &Parser{
		state:   ePreamble,
		config:  config,
		isFile:  config.IsFile,
		log:     config.Logger,
		limits:  limiter{settings: config.Settings},
		headers: headers.NewParser(config.Settings.MaxHeaderPairs, config.Settings.MaxHeaderSize),
	}

	if p.isFile == nil {
		p.isFile = DefaultIsFile
	}

	if p.log == nil {
		p.log = logger.Discard()
	}
	p.log = p.log.With(logger.Component("multipart"))

	if p.config.OnField == nil {
		p.config.OnField = func(PartInfo, []byte) {}
	}

	if p.config.OnFile == nil {
		p.config.OnFile = func(PartInfo) FileSink { return nil }
	}

	if p.config.OnError == nil {
		p.config.OnError = func(error) {}
	}

	if p.config.OnDone == nil {
		p.config.OnDone = func() {}
	}

	boundary, err := boundaryOf(config.Headers)
	if err != nil {
		p.err = err
		return p
	}

	p.dashBoundary = newDelimiter("--" + boundary)
	p.bodyDelimiter = newDelimiter("\r\n--" + boundary)

	return p
}

// Write feeds the next chunk of the body. Once parsing failed, the error is
// returned and data is ignored; the error is passed to OnError only once.
// Data after the final boundary is ignored as well.
func (p *Parser) Write(data []byte) (n int, err error) {
	switch p.state {
	case eError:
		return 0, p.err
	case eEpilogue, eDone:
		return len(data), nil
	}

	if p.err != nil {
		p.fail(p.err)
		return 0, p.err
	}

	if err = p.parse(data); err != nil {
		p.fail(err)
		return 0, err
	}

	return len(data), nil
}

// End signals that the body is over. OnDone is called if the final boundary
// was seen, otherwise parsing fails with ErrEndNotReached.
func (p *Parser) End() error {
	switch p.state {
	case eError:
		return p.err
	case eDone:
		return nil
	case eEpilogue:
		p.state = eDone
		p.log.Debug("multipart body parsed", slog.Int64("parts", p.limits.parts), slog.Int64("total", p.limits.total))
		p.config.OnDone()

		return nil
	}

	err := p.err
	if err == nil {
		err = ErrEndNotReached
	}

	p.fail(err)

	return err
}

// Close is End, making Parser an io.WriteCloser.
func (p *Parser) Close() error {
	return p.End()
}

func (p *Parser) parse(data []byte) (err error) {
	var (
		offset int
		found  bool
	)

	switch p.state {
	case ePreamble:
		goto preamble
	case eBoundaryEnd:
		goto boundaryEnd
	case eBoundaryCR:
		goto boundaryCR
	case eBoundaryDash:
		goto boundaryDash
	case eHeaders:
		goto headers
	case eBody:
		goto body
	default:
		panic(fmt.Sprintf("BUG: unknown state: %v", p.state))
	}

preamble:
	offset, p.matched, found, _ = p.dashBoundary.scan(data, offset, p.matched, discard)
	if !found {
		return nil
	}

	p.state = eBoundaryEnd
	goto boundaryEnd

boundaryEnd:
	if offset >= len(data) {
		return nil
	}

	switch data[offset] {
	case '\r':
		offset++
		p.state = eBoundaryCR
		goto boundaryCR
	case '-':
		offset++
		p.state = eBoundaryDash
		goto boundaryDash
	default:
		return fmt.Errorf("%w: unexpected %q after delimiter", ErrInvalidBoundary, data[offset])
	}

boundaryCR:
	if offset >= len(data) {
		return nil
	}

	if data[offset] != '\n' {
		return fmt.Errorf("%w: expected LF after delimiter, got %q", ErrInvalidBoundary, data[offset])
	}

	offset++
	p.state = eHeaders
	goto headers

boundaryDash:
	if offset >= len(data) {
		return nil
	}

	if data[offset] != '-' {
		return fmt.Errorf("%w: expected closing dashes, got %q", ErrInvalidBoundary, data[offset])
	}

	p.epilogue()

	return nil

headers:
	offset, found, err = p.parseHeaders(data, offset)
	if err != nil || !found {
		return err
	}

	p.state = eBody
	goto body

body:
	offset, p.matched, found, err = p.bodyDelimiter.scan(data, offset, p.matched, p.emit)
	if err != nil || !found {
		return err
	}

	p.finishPart()
	p.state = eBoundaryEnd
	goto boundaryEnd
}

func (p *Parser) parseHeaders(data []byte, offset int) (int, bool, error) {
	h, rest, err := p.headers.Parse(data[offset:])
	if err != nil {
		return offset, false, &HeadersError{Reason: err, Headers: h}
	}

	if h == nil {
		return len(data), false, nil
	}

	if err = p.startPart(h); err != nil {
		return offset, false, err
	}

	return len(data) - len(rest), true, nil
}

// startPart is the dispatching point: the part is described and classified
func (p *Parser) startPart(h headers.Headers) error {
	if err := p.limits.partStarted(); err != nil {
		return err
	}

	info, err := newPartInfo(h)
	if err != nil {
		return err
	}

	p.part = info
	p.file = p.isFile(info)
	p.field = nil
	p.sink = nil

	if p.file {
		if p.sink = p.config.OnFile(info); p.sink == nil {
			p.sink = func([]byte) {}
		}
	}

	p.log.Debug("part started", logger.Part(info.Name, info.Filename, p.file))

	return nil
}

// emit admits a piece of the current part's body
func (p *Parser) emit(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	if err := p.limits.body(len(b)); err != nil {
		return err
	}

	if p.file {
		p.sink(b)
		return nil
	}

	if err := p.limits.fieldBytes(len(b)); err != nil {
		return err
	}

	p.field = append(p.field, b...)

	return nil
}

func (p *Parser) finishPart() {
	if p.file {
		p.sink(nil)
	} else {
		value := p.field
		if value == nil {
			value = []byte{}
		}

		p.field = nil
		p.config.OnField(p.part, value)
	}

	p.log.Debug("part finished", logger.Part(p.part.Name, p.part.Filename, p.file), logger.Size(p.limits.part))
	p.part = PartInfo{}
	p.sink = nil
}

func (p *Parser) epilogue() {
	p.state = eEpilogue
	p.matched = 0
	p.field = nil
}

func (p *Parser) fail(err error) {
	p.state = eError
	p.err = err
	p.matched = 0
	p.field = nil
	p.sink = nil

	p.log.Warn("multipart parsing failed", logger.Error(err))
	p.config.OnError(err)
}
