package command

import (
	"bytes"
	"strings"
)

// Parser reassembles lines from incrementally fed bytes.  It never
// blocks: when no complete line is buffered it reports that and leaves
// the buffer untouched so the caller can feed more input and retry.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	buf []byte
	pos int // start of unconsumed input
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends raw input.
func (p *Parser) Feed(data []byte) {
	if p.pos > 0 && p.pos >= len(p.buf)/2 {
		p.compact()
	}
	p.buf = append(p.buf, data...)
}

// Buffered returns the number of unconsumed bytes.
func (p *Parser) Buffered() int { return len(p.buf) - p.pos }

// Next extracts the next complete line.  ok is false when no newline
// is buffered yet.  A blank line is consumed and yields a nil Command
// with ok true.
func (p *Parser) Next() (cmd *Command, ok bool) {
	line, n, ok := p.peekLine(p.pos)
	if !ok {
		return nil, false
	}
	p.pos = n
	return ParseLine(line), true
}

// NextBlock collects the lines following the current position up to
// the first empty line, which terminates the block and is consumed
// with it.  When the terminator has not arrived yet nothing is
// consumed and ok is false.
func (p *Parser) NextBlock() (block string, ok bool) {
	var lines []string
	at := p.pos
	for {
		line, n, ok := p.peekLine(at)
		if !ok {
			return "", false
		}
		at = n
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	p.pos = at
	return strings.Join(lines, "\n"), true
}

// peekLine returns the line starting at from (without its terminator
// and any trailing CR) and the offset just past the newline.
func (p *Parser) peekLine(from int) (line string, next int, ok bool) {
	i := bytes.IndexByte(p.buf[from:], '\n')
	if i < 0 {
		return "", from, false
	}
	raw := p.buf[from : from+i]
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	return string(raw), from + i + 1, true
}

func (p *Parser) compact() {
	n := copy(p.buf, p.buf[p.pos:])
	p.buf = p.buf[:n]
	p.pos = 0
}
