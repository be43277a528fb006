package main

import (
	"errors"
	"strings"
	"testing"
)

// Enough of a PNG for content sniffing to recognize it.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestEncodeImagePNG(t *testing.T) {
	encoded, err := encodeImage(pngBytes)
	if err != nil {
		t.Fatalf("encodeImage: %v", err)
	}
	if !strings.HasPrefix(encoded, "data:image/png;base64,") {
		t.Errorf("encoded value %q missing data URI prefix", encoded)
	}
}

func TestEncodeImageRejectsNonImages(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":      nil,
		"plain text": []byte("definitely not an image"),
		"json":       []byte(`{"img": true}`),
	} {
		if _, err := encodeImage(data); !errors.Is(err, ErrNotAnImage) {
			t.Errorf("encodeImage(%s) = %v, want ErrNotAnImage", name, err)
		}
	}
}

func TestIngestFileAppliesToLiveSession(t *testing.T) {
	gate := newTestGate(t)
	ing := NewImageIngestor(gate)

	sess := gate.Trigger()
	gate.Verify(testSecret)

	err := <-ing.IngestFile(sess.Token(), pngBytes, func(s *EditSession, encoded string) error {
		return s.SetProfileImage(encoded)
	})
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if !strings.HasPrefix(sess.Working().ProfileImg, "data:image/png;base64,") {
		t.Errorf("profile image not updated, got %q", sess.Working().ProfileImg)
	}
}

func TestIngestFileFailureKeepsPriorValue(t *testing.T) {
	gate := newTestGate(t)
	ing := NewImageIngestor(gate)

	sess := gate.Trigger()
	before := sess.Working().ProfileImg

	err := <-ing.IngestFile(sess.Token(), []byte("corrupt"), func(s *EditSession, encoded string) error {
		return s.SetProfileImage(encoded)
	})
	if !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("IngestFile = %v, want ErrNotAnImage", err)
	}
	if sess.Working().ProfileImg != before {
		t.Error("failed ingest must not touch the previous value")
	}
}

func TestLateIngestAgainstSupersededSessionIsDiscarded(t *testing.T) {
	gate := newTestGate(t)
	ing := NewImageIngestor(gate)

	stale := gate.Trigger()
	live := gate.Trigger() // user reopened the editor before the upload finished
	liveBefore := live.Working()

	err := <-ing.IngestFile(stale.Token(), pngBytes, func(s *EditSession, encoded string) error {
		return s.SetProfileImage(encoded)
	})
	if !errors.Is(err, ErrStaleIngest) {
		t.Fatalf("IngestFile with stale token = %v, want ErrStaleIngest", err)
	}
	if live.Working().ProfileImg != liveBefore.ProfileImg {
		t.Error("stale ingest mutated the live session")
	}
}

func TestLateIngestAfterCancelIsDiscarded(t *testing.T) {
	gate := newTestGate(t)
	ing := NewImageIngestor(gate)

	sess := gate.Trigger()
	token := sess.Token()
	gate.Cancel()

	err := <-ing.IngestFile(token, pngBytes, func(s *EditSession, encoded string) error {
		return s.SetProfileImage(encoded)
	})
	if !errors.Is(err, ErrStaleIngest) {
		t.Errorf("IngestFile after cancel = %v, want ErrStaleIngest", err)
	}
}

func TestAcceptURLIsPassThrough(t *testing.T) {
	ing := NewImageIngestor(newTestGate(t))
	const raw = "https://example.com/hosted.png"
	if got := ing.AcceptURL(raw); got != raw {
		t.Errorf("AcceptURL(%q) = %q", raw, got)
	}
}
