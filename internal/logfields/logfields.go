package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRepo       = "repository"
	KeyModule     = "module"
	KeySubModule  = "submodule"
	KeyQualified  = "qualified_name"
	KeyURL        = "url"
	KeyRef        = "ref"
	KeyCommit     = "commit"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyStack      = "stack"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Repository(r string) slog.Attr      { return slog.String(KeyRepo, r) }
func Module(m string) slog.Attr          { return slog.String(KeyModule, m) }
func SubModule(s string) slog.Attr       { return slog.String(KeySubModule, s) }
func QualifiedName(n string) slog.Attr   { return slog.String(KeyQualified, n) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Ref(r string) slog.Attr             { return slog.String(KeyRef, r) }
func Commit(c string) slog.Attr          { return slog.String(KeyCommit, c) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Stack(trace []byte) slog.Attr       { return slog.String(KeyStack, string(trace)) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
