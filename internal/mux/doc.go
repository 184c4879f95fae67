package mux

// Package mux merges separately downloaded DASH video and audio legs
// into a single container by remuxing through ffmpeg without
// re-encoding. It owns cleanup of the staged input files.
