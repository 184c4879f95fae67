package download

// Package download implements the streaming download engine. It manages
// job lifecycle per presentation slot, streams renditions to disk in
// fixed-size chunks with progress propagation to the UI, and hands
// separate DASH video/audio legs to the mux step.
