package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how rows are written.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatAuto, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: auto, table, json)", s)
	}
}

// Resolve turns FormatAuto into a concrete format for w.
//
// Returns FormatJSON if:
//   - w is not a terminal (piped output, files)
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set
//
// Returns FormatTable otherwise.
func Resolve(f Format, w io.Writer) Format {
	if f != FormatAuto {
		return f
	}
	if os.Getenv("CI") != "" || os.Getenv("NO_COLOR") != "" {
		return FormatJSON
	}
	if !isTerminal(w) {
		return FormatJSON
	}
	return FormatTable
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
