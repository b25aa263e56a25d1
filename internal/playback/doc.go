// Package playback coordinates music playback across two very different
// backends: a remote-device model where the provider plays audio elsewhere
// and we only send control calls, and a local-decode model where the audio
// bytes are fetched, decoded, and driven through the speaker in-process.
//
// The [Coordinator] is the single owner of playback state. It guarantees
// that at most one adapter is audible, that switching sources waits for the
// outgoing adapter to pause before the incoming one starts, and that a
// failed control call never corrupts state. [Permutation] implements the
// shuffle order with adjacent same-artist/same-album separation.
package playback
