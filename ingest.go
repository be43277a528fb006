package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrStaleIngest marks an ingestion that finished after its session was
// committed, cancelled or superseded. The result is discarded.
var ErrStaleIngest = errors.New("ingest completed for a superseded session")

// ErrNotAnImage rejects uploads whose bytes do not sniff as an image.
var ErrNotAnImage = errors.New("uploaded file is not a recognized image")

// ImageIngestor turns uploaded image bytes into self-contained data URIs and
// applies them to the live edit session. Encoding runs off the calling
// goroutine; the apply step re-checks the session token under the gate lock,
// so a completion that lost a race with commit/cancel/re-open never touches
// the new working value.
type ImageIngestor struct {
	gate *AuthGate
}

func NewImageIngestor(gate *AuthGate) *ImageIngestor {
	return &ImageIngestor{gate: gate}
}

// encodeImage sniffs the byte content and embeds it as a data URI. Anything
// that does not look like an image fails before any encoding happens, so a
// corrupt upload can never land in the data model.
func encodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotAnImage
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w (detected %s)", ErrNotAnImage, mtype.String())
	}
	return "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// IngestFile encodes data asynchronously and applies the result through
// apply, but only if token still names the live session at completion time.
// The returned channel delivers exactly one value: nil on success,
// ErrNotAnImage/ErrStaleIngest or an apply error otherwise. On any failure
// the session's previous image value is left as it was.
func (ing *ImageIngestor) IngestFile(token string, data []byte, apply func(*EditSession, string) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		encoded, err := encodeImage(data)
		if err != nil {
			done <- err
			return
		}
		done <- ing.gate.applyIfLive(token, func(s *EditSession) error {
			return apply(s, encoded)
		})
	}()
	return done
}

// AcceptURL is the non-upload path: an externally hosted image is referenced
// by URL as-is, no ingestion involved.
func (ing *ImageIngestor) AcceptURL(raw string) string {
	return raw
}
