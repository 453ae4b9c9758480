package mumps

import "fmt"

// Position is a 0-indexed line/column into the source, matching the
// {line, column} pair the external interface reports.
type Position struct {
	Line   int
	Column int
}

// Diagnostic is a single parse or runtime error, reported with the
// 0-indexed position of the offending token.
type Diagnostic struct {
	Message string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("(%d:%d) %s", d.Line, d.Column, d.Message)
}

// diagnosticSink accumulates diagnostics without aborting the caller: a
// parse error in one command must not stop the parser from recovering
// at the next line.
type diagnosticSink struct {
	diags []Diagnostic
}

func (s *diagnosticSink) add(pos Position, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
	})
}

func (s *diagnosticSink) addAt(line, column int, format string, args ...interface{}) {
	s.add(Position{Line: line, Column: column}, format, args...)
}
