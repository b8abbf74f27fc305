// Package diag defines the diagnostic model shared by all driver phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by configuration resolution, root selection, the
//     scan/compile phases and the consistency verifier.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Separate user-facing configuration errors from internal invariant
//     violations so the CLI boundary can render them differently.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Subject – the qualified name of the entity the finding is about
//     (a module, type or method), empty for whole-run findings.
//   - Notes – optional secondary subjects/messages for additional context.
//
// # Error taxonomy
//
// Two error types flow out of the driver. ConfigError wraps anything the
// user can fix: bad target strings, missing output path, unresolvable root
// methods, conflicting flags. InternalError wraps compiler bugs, above all
// a scan/compile consistency failure; it always carries the full list of
// offending entities. Both are fatal; the CLI distinguishes them with
// errors.As and formats InternalError with its diagnostic dump.
//
// Keep the data model deterministic: any new fields should avoid side
// effects so the CLI and tests can safely serialise diagnostics.
package diag
