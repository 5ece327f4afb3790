package deps

import (
	"context"
	"strings"
	"time"

	"auprobe/internal/media/runner"
)

const versionTimeout = 5 * time.Second

// MediaRequirements lists the ffprobe and ffmpeg binaries. ffmpeg is optional
// when the analysis pass is disabled.
func MediaRequirements(ffprobeBinary, ffmpegBinary string, analysis bool) []Requirement {
	return []Requirement{
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Protocol racing and track catalog"},
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Volume and loudness analysis", Optional: !analysis},
	}
}

// ResolveVersions fills Version for every available status with the first
// line of "<command> -version".
func ResolveVersions(ctx context.Context, exec runner.Executor, statuses []Status) []Status {
	if exec == nil {
		exec = runner.CLI{}
	}
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		out, err := exec.Run(ctx, runner.Command{
			Args:    []string{statuses[i].Command, "-version"},
			Timeout: versionTimeout,
		})
		if err != nil {
			statuses[i].Detail = "version check failed: " + err.Error()
			continue
		}
		statuses[i].Version = firstLine(string(out))
	}
	return statuses
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
