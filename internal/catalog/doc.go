// Package catalog maintains the in-memory index of dashcam event folders.
//
// An event is a directory named YYYY-MM-DD_HH-MM-SS holding one clip per
// camera, each named "<prefix>-<camera>.mp4". Event folders live either
// under one root per clip type (RecentClips, SavedClips, SentryClips) or
// directly in the clips directory.
//
// The Catalog is filled by an initial scan and kept current by a Watcher
// backed by fsnotify. The watcher is started first; notifications received
// while the scan runs are queued and replayed afterwards, so a folder
// deleted mid-scan does not linger in the index.
package catalog
