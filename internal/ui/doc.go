package ui

// Package ui contains the Fyne desktop interface: the main window with
// share-link entry, metadata preview and rendition picker, the
// Bilibili QR login dialog, and the settings dialog.
