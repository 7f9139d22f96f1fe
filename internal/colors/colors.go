// Package colors paints artgit's terminal output.
//
// Painting is off for non-terminals, TERM=dumb and NO_COLOR. FORCE_COLOR
// and the color.ui config key override detection.
package colors

import (
	"os"
	"runtime"
	"strings"
)

// Style is an SGR escape sequence.
type Style string

// Styles
const (
	Reset  Style = "\033[0m"
	Strong Style = "\033[1m"
	Faint  Style = "\033[2m"
	Grey   Style = "\033[90m"
	Alert  Style = "\033[91m"
	Ok     Style = "\033[92m"
	Notice Style = "\033[93m"
	Accent Style = "\033[96m"
)

var enabled = detect()

func detect() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("FORCE_COLOR") != "":
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if runtime.GOOS == "windows" {
		return os.Getenv("WT_SESSION") != "" || os.Getenv("VSCODE_PID") != "" ||
			strings.Contains(term, "color") || strings.Contains(term, "xterm")
	}
	if term == "" || term == "dumb" {
		return false
	}
	fi, err := os.Stdout.Stat()
	return err != nil || fi.Mode()&os.ModeCharDevice != 0
}

// SetColorEnabled turns painting on or off.
func SetColorEnabled(on bool) { enabled = on }

// IsColorEnabled reports whether output is painted.
func IsColorEnabled() bool { return enabled }

// Paint wraps text in s when painting is on.
func Paint(s Style, text string) string {
	if !enabled {
		return text
	}
	return string(s) + text + string(Reset)
}

func Bold(text string) string { return Paint(Strong, text) }
func Dim(text string) string  { return Paint(Faint, text) }
func Gray(text string) string { return Paint(Grey, text) }
func Cyan(text string) string { return Paint(Accent, text) }

func SectionHeader(text string) string { return Paint(Strong, text) }
func ErrorText(text string) string     { return Paint(Alert, text) }
func SuccessText(text string) string   { return Paint(Ok, text) }
func InfoText(text string) string      { return Paint(Accent, text) }
func WarningText(text string) string   { return Paint(Notice, text) }

// CommitID paints a commit id as log and graph output show it.
func CommitID(id string) string { return Paint(Notice, id) }

// HeadMarker labels the checked-out commit.
func HeadMarker() string { return Bold(Cyan("(HEAD)")) }

// Missing marks an artifact the history references but the disk lacks.
func Missing(name string) string {
	return "  " + Paint(Alert, "!") + "  " + Paint(Alert, name)
}

// Orphan marks an artifact on disk that no commit references.
func Orphan(name string) string {
	return "  " + Paint(Notice, "?") + "  " + Paint(Notice, name)
}
