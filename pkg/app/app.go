// Package app holds the runtime contract the cmd/* entrypoints start.
package app

// Runner is a long-running process component. Run blocks until shutdown.
type Runner interface {
	Run() error
}
