// Package model defines the data structures shared across the download
// core: video/playlist/channel records, the download item and its state
// machine, queue state, application settings, and download history.
// Every type here serializes to the snake_case JSON layouts described in
// the storage and command-surface contracts.
package model
