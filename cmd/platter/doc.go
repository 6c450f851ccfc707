// Package main hosts the Platter CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration lazily, opens the library
// store per invocation, and builds catalog clients scoped to the job being
// run. Long-running work (collection sync, matching, alignment) executes
// under a job record so a second invocation against the same target is
// rejected while the first is still running.
//
// Keep this package thin: behavior lives in the internal packages and the
// commands here only translate flags and render results.
package main
