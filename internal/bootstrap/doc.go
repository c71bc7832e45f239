// Package bootstrap runs one module bootstrap against a host environment.
//
// A bootstrap ingests document metadata, then picks exactly one of two modes
// from the host's capability check:
//
//   - Direct-attach: the host has a development shell. A nested frame is
//     created, the parent window and document are bridged into it, and the
//     shell attaches to its global scope. No decision table lookup occurs.
//   - Fetch-and-select: properties are evaluated against the decision table,
//     the chosen artifact is loaded into a nested frame, and dependency
//     resources are injected. An engine.Coordinator starts the artifact once
//     both have completed.
//
// All page-load scoped state (metadata configuration, handlers, injected
// dependency set, clock) lives in a Context passed to every bootstrap, so
// several bootstraps can run side by side in isolated contexts.
//
// A malformed metadata directive is announced immediately and ends the
// bootstrap with ir.OutcomeConfigError before either mode creates a frame.
//
// Failures never unwind past Run. A bad property or bad load is reported
// through the report package; a provider failure leaves the page inert
// without a report. Run only returns an error when the host itself fails.
package bootstrap
