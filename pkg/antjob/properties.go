package antjob

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/magiconair/properties"
	"github.com/rotisserie/eris"
)

const propertiesHeader = "Stored by the antexec build adapter"

// MergeProperties builds the property set for the generated property file.
// It is seeded with the build variables (sorted by key for a stable file) and
// overlaid with the user supplied key=value text, which wins on conflicts.
// Expansion of ${...} references inside values is left to Ant.
func MergeProperties(buildVars map[string]string, userText string) (*properties.Properties, error) {
	merged := properties.NewProperties()
	merged.DisableExpansion = true

	keys := make([]string, 0, len(buildVars))
	for key := range buildVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		_, _, err := merged.Set(key, buildVars[key])
		if err != nil {
			return nil, eris.Wrapf(err, "failed to add build variable %s", key)
		}
	}

	if userText != "" {
		loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
		user, err := loader.LoadBytes([]byte(userText))
		if err != nil {
			return nil, eris.Wrap(err, "failed to parse the job properties")
		}

		merged.Merge(user)
	}

	return merged, nil
}

// WriteProperties serializes the merged properties next to the build file
// (name + ".properties") and returns the path of the written file.
func WriteProperties(workspace, descriptorName string, props *properties.Properties) (string, error) {
	path := filepath.Join(workspace, descriptorName+propertiesSuffix)

	buffer := bytes.Buffer{}
	fmt.Fprintf(&buffer, "# %s\n", propertiesHeader)
	_, err := props.Write(&buffer, properties.UTF8)
	if err != nil {
		return "", eris.Wrap(err, "failed to serialize properties")
	}

	err = ioutil.WriteFile(path, buffer.Bytes(), os.FileMode(0660))
	if err != nil {
		return "", eris.Wrapf(err, "failed to write property file %s", path)
	}

	return path, nil
}
