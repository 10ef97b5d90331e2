// Package mux turns ordered frame sequences into playable MP4 artifacts.
//
// The Muxer interface is deliberately narrow so the backend can be swapped
// without touching the capture protocol. The default backend shells out to
// ffmpeg and stream-copies the already-encoded H.264 access units, so muxing
// cost is I/O bound rather than CPU bound.
package mux
