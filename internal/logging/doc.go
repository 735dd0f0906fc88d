// Package logging provides a small leveled logger for the dashcam viewer.
//
// Messages are written through the standard library logger with a level
// prefix:
//   - DEBUG: Verbose debugging information (watcher events, ffmpeg arguments)
//   - INFO: General operational messages
//   - WARN: Recoverable problems such as unreadable clip folders
//   - ERROR: Failed requests and engine failures
//   - FATAL: Startup errors that terminate the process
//
// The level comes from LOG_LEVEL, or DEBUG=true as a shortcut, and can be
// overridden at runtime with SetLevel.
package logging
