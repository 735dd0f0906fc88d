/*
Package filesystem wraps the stat, open and readdir calls used by the catalog
and the video handlers with retry logic for NFS stale file handle (ESTALE)
errors.

Dashcam USB drives are frequently exported to the viewer over NFS or SMB, and
the car deletes and rewrites RecentClips folders continuously; a handle
obtained during a directory listing can go stale before the file is opened.

Only ESTALE is retried, with exponential backoff (50ms, 100ms, 200ms by
default, capped at MaxBackoff). Every other error is returned immediately.

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

Retry metrics are reported through an Observer set with SetObserver; the
volume label comes from a VolumeResolver set with SetDefaultVolumeResolver.
*/
package filesystem
