package batch

import (
	"strings"
)

const bom = "\uFEFF"

type SkipReason string

const (
	SkipEmpty            SkipReason = "empty"
	SkipComment          SkipReason = "comment"
	SkipMissingSeparator SkipReason = "missing separator"
	SkipInvalidUsername  SkipReason = "invalid username"
	SkipTooLong          SkipReason = "line too long"
)

// Request is a validated input record.
type Request struct {
	Line     int
	Username string
	Groups   []string
}

// Skip explains why a line produced no Request.
type Skip struct {
	Line   int
	Reason SkipReason
	Text   string
}

// Malformed reports whether the skip points at bad input, as opposed to a
// blank line or a comment.
func (s *Skip) Malformed() bool {
	return s.Reason == SkipMissingSeparator || s.Reason == SkipInvalidUsername || s.Reason == SkipTooLong
}

// ParseRecord is ParseLine for a Record read by Reader.
func ParseRecord(rec Record) (Request, *Skip) {
	if rec.TooLong {
		return Request{}, &Skip{Line: rec.Line, Reason: SkipTooLong}
	}
	return ParseLine(rec.Line, rec.Text)
}

// ParseLine turns one raw input line into a Request, or a Skip when the line
// carries no record. line is 1-based.
func ParseLine(line int, raw string) (Request, *Skip) {
	text := strings.TrimSpace(strings.TrimPrefix(raw, bom))
	if text == "" {
		return Request{}, &Skip{Line: line, Reason: SkipEmpty}
	}
	if strings.HasPrefix(text, "#") {
		return Request{}, &Skip{Line: line, Reason: SkipComment, Text: text}
	}
	userPart, groupsPart, ok := strings.Cut(text, ";")
	if !ok {
		return Request{}, &Skip{Line: line, Reason: SkipMissingSeparator, Text: text}
	}
	username := strings.TrimSpace(userPart)
	if !ValidUsername(username) {
		return Request{}, &Skip{Line: line, Reason: SkipInvalidUsername, Text: text}
	}
	return Request{Line: line, Username: username, Groups: splitGroups(groupsPart)}, nil
}

func splitGroups(s string) []string {
	var out []string
	for _, g := range strings.Split(s, ",") {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
	}
	return out
}
