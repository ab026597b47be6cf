package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codewiresh/framewire/internal/terminal"
)

var formats = []string{"auto", "text", "plain", "hex", "dump"}

func checkFormat(format string) error {
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (known: %s)", format, strings.Join(formats, ", "))
}

// formatFrame renders p for the terminal. "auto" prints printable text as is
// and everything else as hex; "plain" is text with escape sequences removed.
func formatFrame(p []byte, format string) string {
	switch format {
	case "text":
		return string(p)
	case "plain":
		return string(terminal.StripANSI(p))
	case "hex":
		return hex.EncodeToString(p)
	case "dump":
		return strings.TrimSuffix(hex.Dump(p), "\n")
	}
	if printable(p) {
		return string(p)
	}
	return hex.EncodeToString(p)
}

func printable(p []byte) bool {
	if !utf8.Valid(p) {
		return false
	}
	for _, r := range string(p) {
		if !unicode.IsPrint(r) && r != '\t' {
			return false
		}
	}
	return true
}
