package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const maxLineSize = 1024 * 1024

// Stream applies a Filter to newline-delimited JSON records.
type Stream struct {
	filter *Filter
}

// NewStream creates a Stream over filter.
func NewStream(filter *Filter) *Stream {
	return &Stream{filter: filter}
}

// Run reads records from in and writes them to out, one JSON object per
// line. Blank lines are dropped. Lines that are not JSON objects are logged
// and written through unchanged. Run returns the number of records enriched.
// Output already produced is flushed to out even when Run fails.
func (s *Stream) Run(ctx context.Context, in io.Reader, out io.Writer) (enriched int, err error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	writer := bufio.NewWriter(out)
	defer func() {
		if flushErr := writer.Flush(); flushErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to flush output: %w", flushErr))
		}
	}()

	lineNumber := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}

		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		output, ok := s.process(ctx, lineNumber, line)
		if ok {
			enriched++
		}

		if _, err := writer.Write(output); err != nil {
			return enriched, fmt.Errorf("failed to write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return enriched, fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return enriched, fmt.Errorf("failed to read records: %w", err)
	}

	tflog.SubsystemDebug(ctx, Subsystem, "Stream completed", map[string]any{
		"lines":    lineNumber,
		"enriched": enriched,
	})

	return enriched, nil
}

// process enriches one line. It returns the line to write and whether the
// line was an enriched record.
func (s *Stream) process(ctx context.Context, lineNumber int, line []byte) ([]byte, bool) {
	fields := map[string]any{
		"record_id": uuid.NewString(),
		"line":      lineNumber,
	}

	rec, err := decodeRecord(line)
	if err != nil {
		fields["error"] = err.Error()
		tflog.SubsystemWarn(ctx, Subsystem, "Passing through malformed record", fields)
		return line, false
	}

	fields["identifier"] = s.filter.Identifier(rec)
	res := s.filter.Apply(ctx, rec)

	fields["status"] = res.Status.Tag()
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}
	tflog.SubsystemDebug(ctx, Subsystem, "Record enriched", fields)

	encoded, err := json.Marshal(rec)
	if err != nil {
		fields["error"] = err.Error()
		tflog.SubsystemError(ctx, Subsystem, "Failed to encode record", fields)
		return line, false
	}

	return encoded, true
}

func decodeRecord(line []byte) (Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()

	var rec Record
	if err := decoder.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("record is not a JSON object")
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return rec, nil
}
