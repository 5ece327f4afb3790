// Package runner executes external media tools (ffprobe, ffmpeg) under a
// per-call timeout and reports failures as typed errors.
//
// Executor is the seam the rest of auprobe depends on; CLI is the os/exec
// implementation. On timeout the whole process group of the child is killed
// so helpers spawned by the tool do not outlive the call.
package runner
