// Package uploads issues pre-signed S3 PUT URLs for demo audio files so the
// browser uploads directly to object storage and the portal never proxies
// file bytes.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	portalerrors "github.com/andresqui0416/Melotech-Artist/errors"
)

// allowedContentTypes are the audio MIME types accepted for demo uploads.
var allowedContentTypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/m4a":    true,
	"audio/aac":    true,
	"audio/ogg":    true,
	"audio/flac":   true,
	"audio/x-flac": true,
}

var keyCharSanitizer = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Request describes the file a client wants to upload.
type Request struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// Grant is a pre-signed upload slot.
type Grant struct {
	PresignedURL string `json:"presignedUrl"`
	Key          string `json:"key"`
	FileName     string `json:"fileName"`
}

// Signer validates upload requests and issues pre-signed PUT URLs.
type Signer struct {
	presign     *s3.PresignClient
	bucket      string
	region      string
	maxFileSize int64
	urlExpiry   time.Duration
	now         func() time.Time
}

// New creates a Signer using the ambient AWS credential chain.
func New(ctx context.Context, bucket, region string, maxFileSize int64, urlExpiry time.Duration) (*Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &Signer{
		presign:     s3.NewPresignClient(client),
		bucket:      bucket,
		region:      region,
		maxFileSize: maxFileSize,
		urlExpiry:   urlExpiry,
		now:         time.Now,
	}, nil
}

// Validate checks the upload request against the portal's file policy.
func (s *Signer) Validate(req Request) error {
	if req.FileName == "" || req.FileType == "" || req.FileSize <= 0 {
		return portalerrors.New(errors.New("missing file metadata"), portalerrors.StatusValidation)
	}
	if !allowedContentTypes[req.FileType] {
		return portalerrors.NewWithDetail(errors.New("unsupported content type"),
			portalerrors.StatusUnsupportedMedia,
			"Invalid file type. Only audio files are allowed.")
	}
	if req.FileSize > s.maxFileSize {
		return portalerrors.NewWithDetail(errors.New("file too large"),
			portalerrors.StatusPayloadTooLarge,
			fmt.Sprintf("File size too large. Maximum size is %dMB.", s.maxFileSize/(1024*1024)))
	}
	return nil
}

// ObjectKey builds the destination key for an upload.
func (s *Signer) ObjectKey(fileName string) string {
	sanitized := keyCharSanitizer.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("submissions/%d-%s", s.now().UnixMilli(), sanitized)
}

// PresignUpload validates the request and returns a pre-signed PUT URL.
func (s *Signer) PresignUpload(ctx context.Context, req Request) (*Grant, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	key := s.ObjectKey(req.FileName)

	out, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(req.FileType),
		ContentLength: aws.Int64(req.FileSize),
		Metadata: map[string]string{
			"originalName": req.FileName,
			"uploadedAt":   s.now().UTC().Format(time.RFC3339),
		},
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &Grant{
		PresignedURL: out.URL,
		Key:          key,
		FileName:     req.FileName,
	}, nil
}

// ObjectURL returns the public URL for an uploaded object key.
func (s *Signer) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
