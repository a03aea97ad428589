// Package logs routes the standard logger to the console and an optional rotated file.
package logs

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const (
	thresholdKB = 10 * 1024
	maxRolls    = 3
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init sends log output to console and, when logFile is set, to a rotated file.
// The returned closer flushes the file; it is safe to call when no file is used.
func Init(logFile string, console io.Writer) (io.Closer, error) {
	log.SetFlags(log.LstdFlags)
	if console == nil {
		console = io.Discard
	}
	if logFile == "" {
		log.SetOutput(console)
		return nopCloser{}, nil
	}
	if dir, _ := filepath.Split(logFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrapf(err, "creating log directory %s", dir)
		}
	}
	r, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return nil, errors.Wrapf(err, "creating log rotator for %s", logFile)
	}
	log.SetOutput(io.MultiWriter(console, r))
	return r, nil
}
