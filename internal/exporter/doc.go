// Package exporter composites several camera clips of one event into a
// single video.
//
// The reference camera fills the frame; every other camera is scaled to a
// 320x240 inset and overlaid in a corner, cycling top-left, top-right,
// bottom-left and bottom-right. The layout is built as a Graph and rendered
// to ffmpeg arguments in one step. Cameras without a clip are dropped, and a
// request whose reference camera has no clip fails before the engine runs.
//
// Concurrent exports share a fixed number of worker slots. Each artifact
// gets a unique name so parallel exports of the same event never collide.
package exporter
