package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	AudioExtensions = []string{".mp3", ".wav", ".aac", ".m4a", ".ogg", ".flac"}
	ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}
	VideoExtensions = []string{".mp4", ".mov", ".m4v", ".mkv", ".webm", ".avi"}
	PDFExtensions   = []string{".pdf"}
)

// IsAudioFile sniffs the extension of path against the audio allow-list.
func IsAudioFile(path string) bool { return hasExtension(path, AudioExtensions) }

// IsImageFile sniffs the extension of path against the still-image list.
func IsImageFile(path string) bool { return hasExtension(path, ImageExtensions) }

// IsVideoFile sniffs the extension of path against the video container list.
func IsVideoFile(path string) bool { return hasExtension(path, VideoExtensions) }

// IsPDFFile reports whether path names a PDF document.
func IsPDFFile(path string) bool { return hasExtension(path, PDFExtensions) }

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindLatest returns the most recently modified file in dir whose extension is
// one of extensions.
func FindLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(extensions, "/"), dir)
	}

	return latestFile, nil
}

// InitResourceLimits raises the open-file limit. ffmpeg inherits it, and a
// render opens one input per clip.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not raise open file limit")
		return
	}
	log.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
}
