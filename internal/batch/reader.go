package batch

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxLineBytes bounds a single input line. Longer lines are returned with
// TooLong set and their text discarded.
const MaxLineBytes = 1024 * 1024

// Record is one raw input line with its 1-based line number.
type Record struct {
	Line    int
	Text    string
	TooLong bool
}

// Reader yields input lines in order. A leading byte-order mark is dropped;
// UTF-16 input announced by a BOM is decoded to UTF-8.
type Reader struct {
	br   *bufio.Reader
	line int
	err  error
	done bool
}

func NewReader(r io.Reader) *Reader {
	dec := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	return &Reader{br: bufio.NewReaderSize(dec, 64*1024)}
}

// Next returns the next line. ok is false at end of input or on error; check
// Err afterwards.
func (r *Reader) Next() (rec Record, ok bool) {
	if r.done {
		return Record{}, false
	}
	var (
		buf     []byte
		n       int
		tooLong bool
	)
	for {
		chunk, err := r.br.ReadSlice('\n')
		n += len(chunk)
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			r.done = true
			if err != io.EOF {
				r.err = err
				return Record{}, false
			}
			if n == 0 {
				return Record{}, false
			}
		}
		break
	}
	r.line++
	if tooLong {
		return Record{Line: r.line, TooLong: true}, true
	}
	text := strings.TrimSuffix(string(buf), "\n")
	return Record{Line: r.line, Text: strings.TrimSuffix(text, "\r")}, true
}

func (r *Reader) Err() error {
	return r.err
}
