package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vk/wellformed/internal/ctxlog"
)

// ErrMalformedCount is returned when one of the two header lines is missing
// or is not a non-negative integer.
var ErrMalformedCount = errors.New("malformed count")

// Read parses the header and then reads Header.Lines() strings. Lines that
// cannot be read, or are not valid UTF-8, become items with empty text; only
// header problems are errors. Lines have no length limit.
func Read(ctx context.Context, r io.Reader) (Header, []Item, error) {
	logger := ctxlog.FromContext(ctx)
	br := bufio.NewReader(r)

	cases, err := readCount(br, "cases")
	if err != nil {
		return Header{}, nil, err
	}
	samples, err := readCount(br, "samples")
	if err != nil {
		return Header{}, nil, err
	}
	if samples > 0 && cases > math.MaxInt/samples {
		return Header{}, nil, fmt.Errorf("%w: %d cases of %d samples overflows the line count", ErrMalformedCount, cases, samples)
	}
	h := Header{Cases: cases, Samples: samples}
	logger.Debug("Input header parsed.", "cases", cases, "samples", samples, "lines", h.Lines())

	items := make([]Item, 0, min(h.Lines(), 4096))
	padded, invalid := 0, 0
	for i := range h.Lines() {
		item := Item{Index: i}
		line, err := readLine(br)
		switch {
		case errors.Is(err, io.EOF):
			padded++
		case err != nil:
			logger.Debug("Input line could not be read; it is empty.", "index", i, "error", err)
		case !utf8.ValidString(line):
			invalid++
		default:
			item.Text = line
		}
		items = append(items, item)
	}
	if padded > 0 {
		logger.Debug("Input ended before all announced lines; missing lines are empty.", "missing", padded)
	}
	if invalid > 0 {
		logger.Debug("Input lines that are not valid UTF-8 are empty.", "invalid", invalid)
	}

	return h, items, nil
}

// readLine returns the next line without surrounding whitespace. io.EOF
// means there was no line left at all; a final line without a newline is
// returned normally.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readCount(br *bufio.Reader, name string) (int, error) {
	line, err := readLine(br)
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %s line is missing", ErrMalformedCount, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s line: %w", ErrMalformedCount, name, err)
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s line %q is not a non-negative integer", ErrMalformedCount, name, line)
	}
	return n, nil
}
