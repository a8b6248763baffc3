package main

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/OCAP2/unitcore/internal/dispatcher"
)

// ArgSeparator separates the command and its arguments on one input line.
const ArgSeparator = "|"

// maxLineSize bounds a single command line.
const maxLineSize = 1 << 20

// ParseLine splits ":CMD:|arg|arg" into an event.
// Blank lines and lines starting with '#' are skipped.
func ParseLine(line string) (dispatcher.Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return dispatcher.Event{}, false
	}
	parts := strings.Split(line, ArgSeparator)
	e := dispatcher.Event{Command: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		e.Args = parts[1:]
	}
	return e, true
}

// Response is written to the output for every dispatched line.
type Response struct {
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// responder serialises responses onto one writer.
type responder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newResponder(w io.Writer) *responder {
	return &responder{enc: json.NewEncoder(w)}
}

func (r *responder) write(resp Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(resp)
}

// Serve dispatches every line of in and writes one response per command to out.
// It returns when in is exhausted or a :QUIT: line is read.
func Serve(in io.Reader, out io.Writer, d *dispatcher.Dispatcher) error {
	resp := newResponder(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		e, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		if e.Command == ":QUIT:" {
			return resp.write(Response{Command: e.Command, Result: "bye"})
		}

		result, err := d.Dispatch(e)
		r := Response{Command: e.Command, Result: result}
		if err != nil {
			r.Error = err.Error()
		}
		if err := resp.write(r); err != nil {
			return err
		}
	}
	return scanner.Err()
}
