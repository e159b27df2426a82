package services

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/rushrhq/messaging/config"
)

const (
	// MaxAttachmentSize caps a single uploaded attachment.
	MaxAttachmentSize = 25 * 1024 * 1024
	thumbnailWidth    = 320
)

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// MediaService interface
type MediaService interface {
	UploadAttachment(fileHeader *multipart.FileHeader, userID uuid.UUID) (*AttachmentInput, error)
}

// mediaService struct
type mediaService struct {
	Config *config.Config
}

// NewMediaService creates a new instance of MediaService
func NewMediaService(conf *config.Config) MediaService {
	return &mediaService{Config: conf}
}

// UploadAttachment pushes the binary to object storage and returns the
// URL plus metadata. The messaging core only ever stores what comes back
// from here; it does no encoding or upload of its own. Images also get a
// downscaled thumbnail object.
func (m *mediaService) UploadAttachment(fileHeader *multipart.FileHeader, userID uuid.UUID) (*AttachmentInput, error) {
	if err := validateAttachment(fileHeader); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %v", err)
	}

	client, err := createS3Client()
	if err != nil {
		return nil, err
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	ext := filepath.Ext(fileHeader.Filename)
	key := fmt.Sprintf("attachments/%s/%s%s", userID, uuid.New(), ext)

	url, err := m.putObject(client, key, content, mimeType)
	if err != nil {
		return nil, err
	}

	attachment := &AttachmentInput{
		FileName:  fileHeader.Filename,
		URL:       url,
		MimeType:  mimeType,
		SizeBytes: fileHeader.Size,
	}

	if strings.HasPrefix(mimeType, "image/") {
		thumbURL, err := m.uploadThumbnail(client, key, content)
		if err == nil {
			attachment.ThumbnailURL = thumbURL
		}
		// A failed thumbnail is not a failed upload.
	}

	return attachment, nil
}

func (m *mediaService) putObject(client *s3.Client, key string, content []byte, mimeType string) (string, error) {
	_, err := client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(m.Config.AwsBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(mimeType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Config.AwsBucket, m.Config.AwsRegion, key), nil
}

func (m *mediaService) uploadThumbnail(client *s3.Client, key string, content []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %v", err)
	}
	thumb := resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %v", err)
	}

	thumbKey := strings.TrimSuffix(key, filepath.Ext(key)) + "_thumb.jpg"
	return m.putObject(client, thumbKey, buf.Bytes(), "image/jpeg")
}

func createS3Client() (*s3.Client, error) {
	cfg, err := fig.LoadDefaultConfig(context.Background(),
		fig.WithRegion(os.Getenv("AWS_REGION")),
		fig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func validateAttachment(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxAttachmentSize {
		return fmt.Errorf("file size exceeds limit of %d bytes", MaxAttachmentSize)
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedAttachmentTypes[mimeType] {
		return fmt.Errorf("invalid file type: %s", mimeType)
	}
	return nil
}
