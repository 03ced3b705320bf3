package antjob

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	scriptBeginMarker = "<!-- script source - begin -->"
	scriptEndMarker   = "<!-- script source -  end  -->"

	extendedBeginMarker = "<!-- extended script source - begin -->"
	extendedEndMarker   = "<!-- extended script source -  end  -->"
)

// BuildDescriptorXML wraps the passed script fragments in a complete Ant
// project. The primary fragment becomes the body of the default target, the
// extended fragment (if any) is appended after the target as sibling top-level
// declarations. Both fragments are embedded verbatim; the caller owns their
// well-formedness (see ValidateFragment).
func BuildDescriptorXML(script, extendedScript, name string) string {
	sb := strings.Builder{}
	sb.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	fmt.Fprintf(&sb, "<project default=%q xmlns:antcontrib=\"antlib:net.sf.antcontrib\" basedir=\".\">\n\n", name)
	sb.WriteString("<!-- Read additional properties -->\n")
	fmt.Fprintf(&sb, "<property file=%q/>\n\n", name+propertiesSuffix)
	sb.WriteString("<!-- Make environment variables accessible via ${env.VARIABLE} by default -->\n")
	sb.WriteString("<property environment=\"env\"/>\n\n")
	fmt.Fprintf(&sb, "<target name=%q>\n", name)
	sb.WriteString(scriptBeginMarker + "\n")
	sb.WriteString(script)
	sb.WriteString("\n" + scriptEndMarker + "\n")
	sb.WriteString("</target>\n")
	if extendedScript != "" {
		sb.WriteString(extendedBeginMarker + "\n")
		sb.WriteString(extendedScript)
		sb.WriteString("\n" + extendedEndMarker + "\n")
	}
	sb.WriteString("</project>\n")
	return sb.String()
}

// WriteDescriptor stores the generated build file in the workspace and returns
// its path.
func WriteDescriptor(workspace, name, content string) (string, error) {
	path := filepath.Join(workspace, name)
	err := ioutil.WriteFile(path, []byte(content), os.FileMode(0660))
	if err != nil {
		return "", eris.Wrapf(err, "failed to write build file %s", path)
	}

	return path, nil
}

// ValidateFragment checks whether the passed script fragment yields a
// well-formed build file. It wraps the fragment the same way a real run would
// (using a placeholder name) and tokenizes the result with a strict XML
// parser; the returned error carries the parser's diagnostic.
func ValidateFragment(fragment string, extended bool) error {
	var doc string
	if extended {
		doc = BuildDescriptorXML("", fragment, "test_script")
	} else {
		doc = BuildDescriptorXML(fragment, "", "test_script")
	}

	decoder := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "the script source is not well-formed")
		}
	}
}
