package system

import (
	"context"
	"os/exec"
	"strings"
)

// BestH264Encoder picks a hardware H.264 encoder when ffmpeg reports one and
// falls back to libx264. Priority: VideoToolbox (macOS), then NVENC.
func BestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}

	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality returns the quality value the encoder treats as a sane default:
// a bitrate multiplier for VideoToolbox, a CQ level for NVENC, a CRF for x264.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
