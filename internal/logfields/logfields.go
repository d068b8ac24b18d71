package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTask       = "task"
	KeyState      = "state"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyAddr       = "addr"
	KeyClients    = "clients"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Clients(n int) slog.Attr         { return slog.Int(KeyClients, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to a duration_ms attribute.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
