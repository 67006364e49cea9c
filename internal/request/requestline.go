package request

import (
	"errors"
	"strings"
)

var ErrMalformedRequestLine = errors.New("malformed request line")

// parseRequestLine parses: METHOD TARGET [VERSION]
// Any whitespace separates tokens. The version is optional and otherwise
// ignored; tokens past the third are dropped.
func parseRequestLine(line string) (string, string, string, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", "", ErrMalformedRequestLine
	}

	method := parts[0]
	target := parts[1]

	version := ""
	if len(parts) > 2 {
		version = parts[2]
	}

	return method, target, version, nil
}

// splitLines splits on \r\n, \n or \r. A terminator at the very end does not
// produce a trailing empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
