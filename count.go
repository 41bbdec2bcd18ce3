package linewise

import (
	"bytes"
	"errors"
	"io"
)

// CountLines counts lines the same way the input reader splits them:
// a trailing line without a newline counts, an empty input has zero lines.
func CountLines(r io.Reader) (uint64, error) {
	buf := make([]byte, 64*1024)
	var (
		n    uint64
		last byte
		seen bool
	)
	for {
		k, err := r.Read(buf)
		if k > 0 {
			n += uint64(bytes.Count(buf[:k], []byte{'\n'}))
			last = buf[k-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' {
		n++
	}
	return n, nil
}
