package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	err  error
	line string
}

// LineReader reads lines from an input that may block, giving up when the
// context is canceled. A single goroutine owns the underlying reader, so a
// line typed after a canceled read is delivered to the next call.
type LineReader struct {
	src   *bufio.Reader
	lines chan lineResult
	once  sync.Once
}

// NewLineReader creates a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan lineResult),
	}
}

func (r *LineReader) pump() {
	defer close(r.lines)
	for {
		line, err := r.src.ReadString('\n')
		if err != nil {
			if line != "" && errors.Is(err, io.EOF) {
				r.lines <- lineResult{line: line}
			}
			r.lines <- lineResult{err: err}
			return
		}
		r.lines <- lineResult{line: line}
	}
}

// ReadLine returns the next line without surrounding whitespace. It returns
// io.EOF when the input is exhausted and ErrInputCancelled when ctx ends
// first.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.once.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
