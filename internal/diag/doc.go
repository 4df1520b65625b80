// Package diag defines the diagnostic model shared by every stage of the
// cachediff pipeline.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by the annotation scanner, the constraint validators and the
//     model builders.
//   - Offer a light-weight accumulator (Bag) that collects every independent
//     problem found in one declaration before a single combined report is
//     surfaced. Nothing in this package fails eagerly.
//   - Model fix suggestions as structured edits that the CLI can show next to
//     the offending span.
//
// # Scope
//
// Package diag performs no formatting, IO or CLI integration. Rendering lives
// in internal/diagfmt; orchestration lives in internal/driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing at the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// Notes should be used sparingly: each note must add new context (e.g. "value
// declared here") rather than repeating the diagnostic message.
//
// Keep the data model deterministic: diagnostics are compared verbatim in
// golden tests and serialised into the generation cache.
package diag
