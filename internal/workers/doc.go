// Package workers sizes worker pools from the available CPUs.
//
// The catalog's initial scan lists event folders on an I/O-bound pool
// (ForIO) and the exporter bounds concurrent ffmpeg runs with a CPU-bound
// count (ForCPU). Either can be pinned with an environment variable read
// through FromEnv.
package workers
