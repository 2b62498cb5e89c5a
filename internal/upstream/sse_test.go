package upstream

import (
	"errors"
	"strings"
	"testing"
)

func TestReadEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "data: one\n\n", []string{"one"}},
		{"crlf", "data: one\r\n\r\n", []string{"one"}},
		{"multiline", "data: a\ndata: b\n\n", []string{"a\nb"}},
		{"comments and fields", ": ping\nevent: movieInfo\nid: 7\ndata: x\n\n", []string{"x"}},
		{"no space", "data:x\n\n", []string{"x"}},
		{"trailing without blank line", "data: last", []string{"last"}},
		{"blank lines only", "\n\n\n", nil},
		{"two events", "data: 1\n\ndata: 2\n\n", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := ReadEvents(strings.NewReader(tt.input), func(data []byte) error {
				got = append(got, string(data))
				return nil
			})
			if err != nil {
				t.Fatalf("ReadEvents() error = %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("ReadEvents() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadEventsReturnsHandlerError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ReadEvents(strings.NewReader("data: 1\n\ndata: 2\n\n"), func([]byte) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
