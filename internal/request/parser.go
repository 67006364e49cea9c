package request

import (
	"errors"
	"fmt"
)

var ErrMissingSeparator = errors.New("no empty line after headers")

// parserState represents the current state of the request parser
type parserState int

const (
	stateRequestLine parserState = iota
	stateHeaders
	stateBody
	stateDone
)

// parser walks the lines of a single request
type parser struct {
	state parserState
	lines []string
	pos   int
}

func newParser(lines []string) *parser {
	return &parser{
		state: stateRequestLine,
		lines: lines,
	}
}

// run advances the state machine until the request is complete
func (p *parser) run(req *Request) error {
	for p.state != stateDone {
		var err error
		switch p.state {
		case stateRequestLine:
			err = p.parseRequestLine(req)
		case stateHeaders:
			err = p.parseHeaders(req)
		case stateBody:
			p.parseBody(req)
		default:
			err = fmt.Errorf("invalid parser state: %d", p.state)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseRequestLine(req *Request) error {
	if len(p.lines) == 0 {
		return ErrMalformedRequestLine
	}

	method, target, version, err := parseRequestLine(p.lines[0])
	if err != nil {
		return err
	}

	req.Method = method
	req.Path = target
	req.Version = version

	p.pos = 1
	p.state = stateHeaders
	return nil
}

// parseHeaders consumes header lines up to the first empty line
func (p *parser) parseHeaders(req *Request) error {
	end := -1
	for i := p.pos; i < len(p.lines); i++ {
		if p.lines[i] == "" {
			end = i
			break
		}
	}
	if end == -1 {
		return ErrMissingSeparator
	}

	if err := req.Headers.Parse(p.lines[p.pos:end]); err != nil {
		return err
	}

	p.pos = end + 1
	p.state = stateBody
	return nil
}

// parseBody takes the single line after the separator, if any
func (p *parser) parseBody(req *Request) {
	if p.pos < len(p.lines) {
		req.Body = p.lines[p.pos]
		p.pos++
	}
	p.state = stateDone
}
