// Package streaming copies large response bodies with write and idle
// timeouts. It is used to deliver export artifacts, which are deleted as soon
// as the copy returns, so a stalled client must not hold the copy open.
package streaming
