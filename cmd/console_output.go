package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

var levelColors = map[string]string{
	"fatal": "[red]",
	"error": "[red]",
	"warn":  "[yellow]",
	"debug": "[blue]",
	"trace": "[blue]",
}

// ConsoleWriter renders zerolog's JSON events as colored one-liners on
// stderr, keeping stdout free for the annotated Ant output.
type ConsoleWriter struct {
	lock sync.Mutex
}

func NewConsoleWriter() *ConsoleWriter {
	return &ConsoleWriter{}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(p))
	decoder.UseNumber()
	err := decoder.Decode(&evt)
	if err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	level, _ := evt["level"].(string)
	line := strings.Builder{}
	if color, ok := levelColors[level]; ok {
		line.WriteString(color)
	} else {
		line.WriteString("[green]")
	}

	if field, ok := evt["field"].(string); ok {
		line.WriteString(field + ": ")
	}

	if level == "error" || level == "fatal" {
		line.WriteString("Error: ")
	}

	msg, _ := evt["message"].(string)
	if path, ok := evt["path"].(string); ok {
		// show workspace files relative to the current directory
		relPath, relErr := filepath.Rel(".", path)
		if relErr == nil {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}
	line.WriteString(msg)

	if details, ok := evt["error"].(string); ok {
		line.WriteString("\n")
		line.WriteString(details)
	}

	if os.Getenv("ANTEXEC_DEBUG") != "" {
		line.WriteString("\n")
		for name, value := range evt {
			fmt.Fprintf(&line, "  %s: %+v\n", name, value)
		}
	}

	line.WriteString("[reset]\n")
	return colorstring.Fprint(os.Stderr, line.String())
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("ANTEXEC_DEBUG") != "")
	}
}
