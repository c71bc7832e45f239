// Package report routes bootstrap failures to the user.
//
// Two failure kinds are reported: a bad property value found during
// selection, and a module that failed to load. Each kind may be overridden by
// a handler registered through document metadata. When a handler exists the
// Reporter delegates to it and produces no notification of its own;
// otherwise a blocking, user-visible alert is raised through a Notifier.
//
// Provider failures are never reported here. They mark the environment as
// unsupported and end the bootstrap silently.
package report
