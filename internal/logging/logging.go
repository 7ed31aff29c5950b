// Package logging builds the subsystem loggers handed to domain packages.
package logging

import (
	"io"
	"os"

	"github.com/decred/slog"
)

// Subsystem tags.
const (
	Match   = "MTCH"
	Gateway = "WSGW"
	Events  = "EVNT"
	Ledger  = "LDGR"
)

// Loggers shares one backend across subsystems at a common level.
type Loggers struct {
	backend *slog.Backend
	level   slog.Level
}

// New writes to w (stdout when nil) at the named level. Unknown levels
// fall back to info.
func New(w io.Writer, level string) *Loggers {
	if w == nil {
		w = os.Stdout
	}
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		lvl = slog.LevelInfo
	}
	return &Loggers{backend: slog.NewBackend(w), level: lvl}
}

// Logger returns the logger for a subsystem tag.
func (l *Loggers) Logger(subsystem string) slog.Logger {
	log := l.backend.Logger(subsystem)
	log.SetLevel(l.level)
	return log
}

// Level is the threshold shared by every subsystem logger.
func (l *Loggers) Level() slog.Level { return l.level }
