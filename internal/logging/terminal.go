package logging

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether v is an *os.File (or wrapper exposing Fd) attached to
// a terminal. It accepts readers as well as writers.
func IsTTY(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorEnabled decides whether output to w gets ANSI colors. NO_COLOR and
// TERM=dumb turn color off, CLICOLOR_FORCE turns it on for pipes.
func ColorEnabled(w any) bool {
	return colorEnabled(os.Getenv, IsTTY(w))
}

func colorEnabled(getenv func(string) string, tty bool) bool {
	if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return false
	}
	if v := getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return tty
}
