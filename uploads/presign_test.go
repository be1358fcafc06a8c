package uploads

import (
	"errors"
	"strings"
	"testing"
	"time"

	portalerrors "github.com/andresqui0416/Melotech-Artist/errors"
)

func testSigner() *Signer {
	return &Signer{
		bucket:      "demo-bucket",
		region:      "us-east-1",
		maxFileSize: 50 * 1024 * 1024,
		urlExpiry:   time.Hour,
		now:         func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestSigner_Validate(t *testing.T) {
	s := testSigner()

	cases := []struct {
		name string
		req  Request
		want portalerrors.StatusCode
	}{
		{"valid mp3", Request{FileName: "demo.mp3", FileType: "audio/mpeg", FileSize: 1024}, 0},
		{"valid wav", Request{FileName: "demo.wav", FileType: "audio/wav", FileSize: 1024}, 0},
		{"missing name", Request{FileType: "audio/mpeg", FileSize: 1024}, portalerrors.StatusValidation},
		{"missing type", Request{FileName: "demo.mp3", FileSize: 1024}, portalerrors.StatusValidation},
		{"zero size", Request{FileName: "demo.mp3", FileType: "audio/mpeg"}, portalerrors.StatusValidation},
		{"video rejected", Request{FileName: "demo.mp4", FileType: "video/mp4", FileSize: 1024}, portalerrors.StatusUnsupportedMedia},
		{"image rejected", Request{FileName: "cover.png", FileType: "image/png", FileSize: 1024}, portalerrors.StatusUnsupportedMedia},
		{"too large", Request{FileName: "demo.mp3", FileType: "audio/mpeg", FileSize: 51 * 1024 * 1024}, portalerrors.StatusPayloadTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Validate(tc.req)
			if tc.want == 0 {
				if err != nil {
					t.Fatalf("Expected valid request, got %v", err)
				}
				return
			}
			var perr *portalerrors.PortalError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected PortalError, got %v", err)
			}
			if perr.StatusCode != tc.want {
				t.Errorf("Expected status %d, got %d", tc.want, perr.StatusCode)
			}
		})
	}
}

func TestSigner_ObjectKey(t *testing.T) {
	s := testSigner()

	key := s.ObjectKey("My Demo (final).mp3")
	if key != "submissions/1700000000000-My_Demo__final_.mp3" {
		t.Errorf("Unexpected key: %s", key)
	}
	if strings.ContainsAny(key, " ()") {
		t.Errorf("Key contains unsanitized characters: %s", key)
	}
}

func TestSigner_ObjectURL(t *testing.T) {
	s := testSigner()

	got := s.ObjectURL("submissions/1700000000000-demo.mp3")
	want := "https://demo-bucket.s3.us-east-1.amazonaws.com/submissions/1700000000000-demo.mp3"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
