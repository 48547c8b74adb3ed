package diag

import (
	"fmt"
	"strings"
)

// Loc is a byte offset into a source file.
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

// Source is a positioned source buffer: raw text plus the logical
// filename it was loaded under.
type Source struct {
	KeyPath  string
	Contents string
}

func NewSource(keyPath, contents string) Source {
	return Source{KeyPath: keyPath, Contents: contents}
}

// LineAndColumn converts a byte offset into a 1-based line and a
// 0-based column, along with the text of the containing line.
func (s Source) LineAndColumn(loc Loc) (line int, column int, lineText string) {
	contents := s.Contents
	offset := int(loc.Start)
	if offset > len(contents) {
		offset = len(contents)
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	column = offset - lineStart
	lineEnd := strings.IndexByte(contents[lineStart:], '\n')
	if lineEnd == -1 {
		lineText = contents[lineStart:]
	} else {
		lineText = contents[lineStart : lineStart+lineEnd]
	}
	return
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

func (k MsgKind) String() string {
	if k == Warning {
		return "warning"
	}
	return "error"
}

// Msg is one diagnostic with a resolved source position.
type Msg struct {
	Kind     MsgKind
	Text     string
	File     string
	Line     int
	Column   int
	LineText string
}

func (m Msg) String() string {
	if m.File == "" {
		return fmt.Sprintf("%s: %s", m.Kind, m.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", m.File, m.Line, m.Column, m.Kind, m.Text)
}

// Log collects diagnostics for one pipeline run. It is an explicit
// value threaded through the front end rather than ambient state, so
// concurrent runs never share a collector.
type Log struct {
	Msgs      []Msg
	hasErrors bool
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) AddError(source *Source, loc Loc, text string) {
	msg := Msg{Kind: Error, Text: text}
	if source != nil {
		msg.File = source.KeyPath
		msg.Line, msg.Column, msg.LineText = source.LineAndColumn(loc)
	}
	l.Msgs = append(l.Msgs, msg)
	l.hasErrors = true
}

func (l *Log) AddWarning(source *Source, loc Loc, text string) {
	msg := Msg{Kind: Warning, Text: text}
	if source != nil {
		msg.File = source.KeyPath
		msg.Line, msg.Column, msg.LineText = source.LineAndColumn(loc)
	}
	l.Msgs = append(l.Msgs, msg)
}

func (l *Log) HasErrors() bool {
	return l.hasErrors
}

func (l *Log) Errors() []Msg {
	msgs := make([]Msg, 0, len(l.Msgs))
	for _, msg := range l.Msgs {
		if msg.Kind == Error {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (l *Log) String() string {
	parts := make([]string, len(l.Msgs))
	for i, msg := range l.Msgs {
		parts[i] = msg.String()
	}
	return strings.Join(parts, "\n")
}
