// Package simhost provides an in-process bootstrap.Host.
//
// Every asynchronous completion (frame load, dependency injection, artifact
// failure) is posted to an engine.Loop instead of being invoked directly, so
// a bootstrap's callbacks interleave exactly as they would on a page. The
// Order option decides which of the two lifecycle signals arrives first.
package simhost
