// Package checkpoint persists conversation state as versioned, self-describing
// snapshots so a paused dialogue can be resumed in a later process. Snapshots
// are written atomically; a reader never observes a partial file.
package checkpoint
