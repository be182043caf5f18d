// Package oracle defines the correction backend used to fix batches of text.
//
// The engine talks to a backend through the Corrector interface. Two
// implementations exist:
//
//   - Client calls an OpenAI-compatible chat completion endpoint (the Gemini
//     API in its compatibility mode by default) and decodes the model's JSON
//     reply.
//   - Mock runs fully offline and applies a deterministic whitespace and
//     punctuation cleanup. It exists for local runs and tests where no
//     credential is available.
//
// Backend failures of any kind (transport, HTTP status, malformed reply) are
// reported as *TransientError. Callers treat a transient failure as "this
// batch produced nothing" and decide themselves whether to retry; the
// backend never retries internally.
package oracle
