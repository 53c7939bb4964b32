// Package security builds the effective security posture report: which
// throttles, budgets, and delivery channels a configured engine actually
// enforces.
//
// # What this package must NOT do
//
//   - Hold policy defaults — it only reflects the configuration it is given.
package security
