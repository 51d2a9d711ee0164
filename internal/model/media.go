// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Size limits for attachments read from disk.
const (
	MaxImageBytes = 20 << 20
	MaxAudioBytes = 20 << 20
)

var (
	// ErrNotImage is returned when a file is not a recognised image.
	ErrNotImage = errors.New("file is not an image")

	// ErrNotAudio is returned when a file is not a recognised audio format.
	ErrNotAudio = errors.New("file is not audio")

	// ErrTooLarge is returned when an attachment exceeds its size limit.
	ErrTooLarge = errors.New("file is too large")
)

// =============================================================================
// MEDIA LOADING
// =============================================================================

// LoadImage reads an image file and returns it base64-encoded with its
// detected MIME type.
func LoadImage(path string) (Blob, error) {
	data, mime, err := readMedia(path, MaxImageBytes)
	if err != nil {
		return Blob{}, err
	}
	if !strings.HasPrefix(mime, "image/") {
		return Blob{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, path, mime)
	}
	return Blob{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

// LoadAudio reads an audio file and returns the raw bytes with the detected
// MIME type.
func LoadAudio(path string) ([]byte, string, error) {
	data, mime, err := readMedia(path, MaxAudioBytes)
	if err != nil {
		return nil, "", err
	}
	if !strings.HasPrefix(mime, "audio/") && mime != "video/webm" && mime != "application/ogg" {
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrNotAudio, path, mime)
	}
	// Browser recorders write audio-only WebM.
	if mime == "video/webm" {
		mime = "audio/webm"
	}
	return data, mime, nil
}

func readMedia(path string, limit int64) ([]byte, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, "", errors.New("no file given")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > limit {
		return nil, "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, path, info.Size(), limit)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Parameters such as "; charset=binary" are not part of the wire MIME type.
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return data, mime, nil
}
