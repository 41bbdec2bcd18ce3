package linewise

import (
	"errors"
	"fmt"
)

// LineMetaError exposes the sequence number of the input line a failure belongs to.
type LineMetaError interface {
	error
	Unwrap() error
	Seq() uint64
}

type lineError struct {
	err error
	seq uint64
}

func newLineError(err error, seq uint64) error {
	if err == nil {
		return nil
	}
	return &lineError{err: err, seq: seq}
}

func (e *lineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.seq, e.err.Error())
}

func (e *lineError) Unwrap() error { return e.err }

func (e *lineError) Seq() uint64 { return e.seq }

func (e *lineError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "line(seq=%d): %+v", e.seq, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractLineSeq returns the input line sequence number carried by err, if any.
func ExtractLineSeq(err error) (uint64, bool) {
	var lme LineMetaError
	if errors.As(err, &lme) {
		return lme.Seq(), true
	}
	return 0, false
}
