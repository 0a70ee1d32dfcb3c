package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProfile    = "profile"
	KeyUnit       = "unit"
	KeyURL        = "url"
	KeyHost       = "host"
	KeyPrefix     = "prefix"
	KeyBackend    = "backend"
	KeyPort       = "port"
	KeyPath       = "path"
	KeyRunID      = "run_id"
	KeyRepos      = "repositories"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Profile(name string) slog.Attr   { return slog.String(KeyProfile, name) }
func Unit(name string) slog.Attr      { return slog.String(KeyUnit, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Host(h string) slog.Attr         { return slog.String(KeyHost, h) }
func Prefix(p string) slog.Attr       { return slog.String(KeyPrefix, p) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Port(p int) slog.Attr            { return slog.Int(KeyPort, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Repos(n int) slog.Attr           { return slog.Int(KeyRepos, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
