package antjob

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
)

// targetRe matches Ant's target header lines such as "compile:".
var targetRe = regexp.MustCompile(`^[^\s]+:$`)

// Annotator filters the combined console output of an Ant process and
// highlights Ant's own framing: target headers and the final build outcome.
// It is strictly line buffered; ForceEOL flushes a trailing partial line once
// the process is gone. Writes are serialized since stdout and stderr of the
// child arrive on separate goroutines.
type Annotator struct {
	out io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
}

func NewAnnotator(out io.Writer) *Annotator {
	return &Annotator{out: out}
}

func (a *Annotator) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buf.Write(p)
	for {
		data := a.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}

		line := string(data[:idx+1])
		a.buf.Next(idx + 1)
		err := a.emit(line)
		if err != nil {
			return len(p), err
		}
	}

	return len(p), nil
}

// ForceEOL terminates and flushes any buffered partial line. It must be
// called after the process ended, whether it succeeded or not.
func (a *Annotator) ForceEOL() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.buf.Len() == 0 {
		return nil
	}

	line := a.buf.String() + "\n"
	a.buf.Reset()
	return a.emit(line)
}

func (a *Annotator) emit(line string) error {
	trimmed := strings.TrimRight(line, "\r\n")

	color := ""
	switch {
	case strings.HasPrefix(trimmed, "BUILD SUCCESSFUL"):
		color = "[green][bold]"
	case strings.HasPrefix(trimmed, "BUILD FAILED"):
		color = "[red][bold]"
	case targetRe.MatchString(trimmed):
		color = "[blue][bold]"
	}

	if color == "" {
		_, err := io.WriteString(a.out, line)
		return err
	}

	_, err := io.WriteString(a.out, colorstring.Color(color+trimmed+"[reset]")+"\n")
	return err
}
