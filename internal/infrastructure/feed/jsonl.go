// Package feed reads scraper output: one JSON object per line.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rankhistory"
	"github.com/MGMAppDev/soccerview-sub009/internal/domain/rawrecord"
	"github.com/bytedance/sonic"
)

// maxLineBytes bounds a single record line.
const maxLineBytes = 4 << 20

// LineError is a line that could not be decoded. Decoding continues past it.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error {
	return e.Err
}

// Decode reads every non-blank line of r into a T. Malformed lines are
// returned as LineErrors; only read failures abort.
func Decode[T any](ctx context.Context, r io.Reader) ([]T, []LineError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		out     []T
		invalid []LineError
		line    int
	)
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return out, invalid, err
			}
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var item T
		if err := sonic.Unmarshal(raw, &item); err != nil {
			invalid = append(invalid, LineError{Line: line, Err: err})
			continue
		}
		out = append(out, item)
	}
	if err := scanner.Err(); err != nil {
		return out, invalid, fmt.Errorf("read feed after line %d: %w", line, err)
	}
	return out, invalid, nil
}

func ReadRecords(ctx context.Context, r io.Reader) ([]rawrecord.Record, []LineError, error) {
	return Decode[rawrecord.Record](ctx, r)
}

func ReadRatings(ctx context.Context, r io.Reader) ([]rankhistory.RatingRow, []LineError, error) {
	return Decode[rankhistory.RatingRow](ctx, r)
}

// Open opens path for reading; "-" is stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	return f, nil
}
