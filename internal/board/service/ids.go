package service

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	workItemIDPrefix = "A-"
	workItemIDLength = 5
	base36           = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// Largest multiple of 36 below 256. Bytes at or above it are redrawn so
	// every symbol is equally likely.
	base36Cutoff = 252

	maxCreateAttempts = 8
)

var defaultIDReader io.Reader = rand.Reader

// NewWorkItemID returns "A-" followed by 5 uppercase base36 characters.
func NewWorkItemID(r io.Reader) (string, error) {
	out := make([]byte, 0, len(workItemIDPrefix)+workItemIDLength)
	out = append(out, workItemIDPrefix...)
	buf := make([]byte, workItemIDLength*2)
	for len(out) < cap(out) {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		for _, c := range buf {
			if c >= base36Cutoff {
				continue
			}
			out = append(out, base36[c%36])
			if len(out) == cap(out) {
				break
			}
		}
	}
	return string(out), nil
}
