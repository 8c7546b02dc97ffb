//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package main

import (
	"os"
)

// isTerminal always reports false where termios is unavailable.
func isTerminal(f *os.File) bool {
	return false
}
