package upstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const maxEventSize = 1 << 20

// ReadEvents reads a text/event-stream body and calls fn with the data of
// every complete event. Multi-line data fields are joined with '\n'; comment
// lines and fields other than data are ignored. It returns fn's error
// unchanged, nil at a clean end of stream, or the read error.
func ReadEvents(r io.Reader, fn func(data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)

	var data []byte
	hasData := false
	dispatch := func() error {
		if !hasData {
			return nil
		}
		payload := data
		data = nil
		hasData = false
		return fn(payload)
	}

	for scanner.Scan() {
		line := bytes.TrimSuffix(scanner.Bytes(), []byte("\r"))
		if len(line) == 0 {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, found := bytes.Cut(line, []byte(":"))
		if found {
			value = bytes.TrimPrefix(value, []byte(" "))
		}
		if string(field) != "data" {
			continue
		}
		if hasData {
			data = append(data, '\n')
		}
		data = append(data, value...)
		hasData = true
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	// a trailing event without the blank line terminator is still delivered
	return dispatch()
}
