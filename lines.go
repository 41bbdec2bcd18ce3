package linewise

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// IndexedLine is one input line tagged with its position in the source, starting at 0.
type IndexedLine struct {
	Seq  uint64
	Text string
}

// IndexedResult is the transform outcome for the line with the same Seq.
// Present == false means the line was dropped by the transform.
type IndexedResult struct {
	Seq     uint64
	Text    string
	Present bool
}

// lineSource yields input lines without their terminators. It returns io.EOF after the last line.
type lineSource interface {
	readLine() (string, error)
}

// lineSink receives output lines in final order. Only the reorderer writes to it.
type lineSink interface {
	writeLine(s string) error
	flush() error
}

type readerSource struct {
	r *bufio.Reader
}

func newReaderSource(r io.Reader) *readerSource {
	return &readerSource{r: bufio.NewReaderSize(r, 64*1024)}
}

// readLine has no line length ceiling; "\n" and "\r\n" terminators are stripped.
// A last line without a terminator is still a line.
func (s *readerSource) readLine() (string, error) {
	line, err := s.r.ReadString('\n')
	switch {
	case err == nil:
		line = line[:len(line)-1]
	case errors.Is(err, io.EOF) && line != "":
		// unterminated last line; the next call reports io.EOF
	default:
		return "", err
	}
	return strings.TrimSuffix(line, "\r"), nil
}

type sliceSource struct {
	lines []string
	pos   int
}

func (s *sliceSource) readLine() (string, error) {
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	l := s.lines[s.pos]
	s.pos++
	return l, nil
}

type writerSink struct {
	w *bufio.Writer
}

func newWriterSink(w io.Writer) *writerSink {
	return &writerSink{w: bufio.NewWriterSize(w, 64*1024)}
}

func (s *writerSink) writeLine(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *writerSink) flush() error { return s.w.Flush() }

type sliceSink struct {
	lines []string
}

func (s *sliceSink) writeLine(line string) error {
	s.lines = append(s.lines, line)
	return nil
}

func (*sliceSink) flush() error { return nil }
