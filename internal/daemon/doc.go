// Package daemon provides the background machinery that keeps the local
// store fresh: a timer-driven auto-sync loop and a data-directory
// watcher.
//
// The auto-sync loop:
//  1. Runs one sync pass immediately on Start
//  2. Repeats the pass on a fixed interval (5 minutes by default)
//  3. Skips a tick when the previous pass is still in flight
//  4. Logs pass failures and keeps ticking
//
// The store watcher monitors the data directory with fsnotify and emits
// an event whenever another process touches the store files, so UIs can
// refresh without polling.
package daemon
