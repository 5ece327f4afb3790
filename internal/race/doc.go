// Package race probes every candidate protocol of a source with ffprobe and
// selects the fastest one that exposes a decodable track catalog.
//
// Each candidate is probed RepeatTimes times. A repetition makes up to
// RetryTimes attempts, each with a longer timeout than the last, and is timed
// from its first attempt to its first success. Repetitions with no success
// cost FailurePenalty. Candidates are compared by their mean repetition time.
package race
