package sse

import (
	"bytes"
	"unicode/utf8"
)

// Event is one parsed server-sent event. Type and ID are empty when the
// corresponding field was absent. Data holds every data field value of the
// event joined with newlines, per the SSE specification.
type Event struct {
	Type string
	Data string
	ID   string
}

const (
	// defaultBufferCap is the initial capacity of the input buffer. Typical
	// LLM deltas are well under 1 KiB, so 8 KiB holds several events without
	// growing.
	defaultBufferCap = 8192

	// dataScratchCap is the initial capacity of the data scratch buffer.
	dataScratchCap = 1024

	// compactMinConsumed is the minimum consumed prefix, in bytes, before
	// compaction is considered. Compaction also requires the consumed prefix
	// to exceed half the buffer, so short streams never pay the copy.
	compactMinConsumed = 4096
)

// Parser frames an SSE byte stream into events. Feed bytes in any chunk
// sizes (including mid-line and mid-rune splits) and drain complete events
// with Next. The zero value is not usable; construct with [NewParser].
//
// Parser is not safe for concurrent use; each stream owns one instance.
type Parser struct {
	buf      []byte
	consumed int

	// Scratch buffers for the event under construction. They are reset on
	// every Next call, so returned Event strings are copies and remain valid
	// after further parsing.
	data  []byte
	event []byte
	id    []byte
}

// NewParser returns a Parser with default buffer capacity.
func NewParser() *Parser {
	return &Parser{
		buf:  make([]byte, 0, defaultBufferCap),
		data: make([]byte, 0, dataScratchCap),
	}
}

// Feed appends raw bytes to the parser's input buffer. Compaction runs first
// when the consumed prefix exceeds both half the buffer and
// compactMinConsumed, bounding memory on long streams.
func (p *Parser) Feed(b []byte) {
	if p.consumed > len(p.buf)/2 && p.consumed > compactMinConsumed {
		p.compact()
	}
	p.buf = append(p.buf, b...)
}

// compact drops the consumed prefix by sliding unread bytes to the front.
func (p *Parser) compact() {
	if p.consumed == 0 {
		return
	}
	n := copy(p.buf, p.buf[p.consumed:])
	p.buf = p.buf[:n]
	p.consumed = 0
}

// Next returns the next complete event, or ok=false when more bytes are
// needed. A complete event requires its terminating blank line; partial
// lines and unterminated events stay buffered without being consumed.
//
// Field handling per event:
//   - "data" values concatenate with newline separators
//   - "event" and "id" values replace earlier ones
//   - unknown fields, comment lines (leading ':'), and lines without a colon
//     are discarded
//   - a field value that is not valid UTF-8 is skipped for that field only
//
// Events that end up with no data are discarded and scanning continues.
func (p *Parser) Next() (Event, bool) {
	for {
		p.data = p.data[:0]
		p.event = p.event[:0]
		p.id = p.id[:0]

		rest := p.buf[p.consumed:]
		pos := 0
		eventEnd := -1

		for pos < len(rest) {
			nl := bytes.IndexByte(rest[pos:], '\n')
			if nl < 0 {
				// Partial line at the end of the buffer; not ready.
				return Event{}, false
			}
			lineEnd := pos + nl

			line := rest[pos:lineEnd]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}

			// Blank line terminates the event.
			if len(line) == 0 {
				eventEnd = lineEnd + 1
				break
			}

			if colon := bytes.IndexByte(line, ':'); colon >= 0 {
				field := line[:colon]
				value := line[colon+1:]
				// One leading space after the colon is part of the syntax.
				if len(value) > 0 && value[0] == ' ' {
					value = value[1:]
				}
				if utf8.Valid(value) {
					switch string(field) {
					case "data":
						if len(p.data) > 0 {
							p.data = append(p.data, '\n')
						}
						p.data = append(p.data, value...)
					case "event":
						p.event = append(p.event[:0], value...)
					case "id":
						p.id = append(p.id[:0], value...)
					}
				}
			}

			pos = lineEnd + 1
		}

		if eventEnd < 0 {
			// No blank line yet; the whole event stays buffered.
			return Event{}, false
		}
		p.consumed += eventEnd

		if len(p.data) == 0 {
			// Event with no data, e.g. a bare "event:" line or comments only.
			continue
		}

		return Event{
			Type: string(p.event),
			Data: string(p.data),
			ID:   string(p.id),
		}, true
	}
}

// Reset clears all buffered input and scratch state so the parser can be
// reused for a new stream.
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
	p.consumed = 0
	p.data = p.data[:0]
	p.event = p.event[:0]
	p.id = p.id[:0]
}

// Buffered reports the number of unconsumed bytes currently held.
func (p *Parser) Buffered() int {
	return len(p.buf) - p.consumed
}
