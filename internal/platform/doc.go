package platform

// Package platform provides OS-level helpers (filesystem naming,
// directory management, file-manager integration) and the share-link
// resolver that maps pasted text to a supported video platform.
