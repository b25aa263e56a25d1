// Package ui implements the terminal interface with bubbletea.
//
// The [Model] follows the Elm architecture: a [ViewState] selects between
// the login screen, the playlist library (one tab per connected provider
// plus a Shared tab), and the track view. A one second tick keeps the
// transport bar at the bottom in step with the playback coordinator, and
// session invalidation events route the user back to the login screen
// when no provider is left connected.
package ui
