// Package textformat provides a human-readable logrus.Formatter for
// interactive use; logging.NewPretty selects it, while logging.New keeps
// JSON output. Unlike a generic terse formatter, it gives the
// identifier/version/path triple spec section 7 calls out ("every non-OK
// path emits a ... message tagged with the offending identifier, version,
// and/or path") a distinguished rendering on the message line itself,
// mirroring status.Error's own tag() — the same three fields collapse to
// the same "identifier@version (path)" shape whether they reach the log via
// a *status.Error's message or via logging.Fields set directly by a caller.
package textformat

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formatter implements logrus.Formatter with a terser layout than
// logrus.TextFormatter: one line for the message (with any
// identifier/version/path fields folded into a tag), then one indented
// "key = value" line per remaining field.
type Formatter struct{}

const fieldIndent = 2

// Format implements logrus.Formatter.
func (f *Formatter) Format(e *logrus.Entry) ([]byte, error) {
	b := new(bytes.Buffer)

	level := strings.ToUpper(e.Level.String())
	tag := pluginTag(e.Data)
	if tag != "" {
		fmt.Fprintf(b, "[%s] %s: %s\n", level, tag, e.Message)
	} else {
		fmt.Fprintf(b, "[%s] %s\n", level, e.Message)
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k == "identifier" || k == "version" || k == "path" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "%s%s = %v\n", strings.Repeat(" ", fieldIndent), k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// pluginTag renders the identifier/version/path fields the same way
// status.Error.tag() does, so a plug-in-scoped log line reads identically
// whether it originated from a wrapped *status.Error or from fields set
// directly on the entry. Returns "" if none of the three are present.
func pluginTag(data logrus.Fields) string {
	identifier, _ := data["identifier"].(string)
	version, _ := data["version"].(string)
	path, _ := data["path"].(string)

	switch {
	case identifier != "" && version != "":
		return fmt.Sprintf("%s@%s (%s)", identifier, version, path)
	case identifier != "":
		if path != "" {
			return fmt.Sprintf("%s (%s)", identifier, path)
		}
		return identifier
	case path != "":
		return path
	default:
		return ""
	}
}
