// Package engine runs the actor's background tasks and fans their results
// out. The Spawner turns a task id into an operation whose latency and
// outcome come from a policy; the Broker streams results to live
// subscribers; the LedgerReporter persists them to the store.
package engine
