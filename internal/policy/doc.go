// Package policy defines how a simulated background task behaves: how long it
// takes and whether it succeeds. Policies are registered by name so the
// spawner can be configured without code changes.
package policy
