package model

// Package model defines domain data structures used across the app: platform
// identifiers, normalized video metadata, rendition options, and download job
// state. Structures are designed for direct binding in the UI and explicit
// state transitions.
