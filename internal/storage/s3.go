package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, fileName, contentType string, data []byte) (string, error)
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL prefixes object keys in returned links; defaults to https://<bucket>.<endpoint host>.
	PublicURL string
}

// S3 uploads to any S3-compatible object store.
type S3 struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
}

func NewS3(cfg S3Config) (*S3, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return NewS3WithClient(s3.New(sess), cfg.Bucket, publicBase(cfg)), nil
}

func NewS3WithClient(client s3iface.S3API, bucket, publicURL string) *S3 {
	return &S3{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func publicBase(cfg S3Config) string {
	if cfg.PublicURL != "" {
		return cfg.PublicURL
	}
	if cfg.Endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s", cfg.Bucket, host)
}

// Upload stores data under folder with a random prefix so repeated file names never collide.
func (s *S3) Upload(ctx context.Context, folder, fileName, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := path.Join(folder, uuid.NewString()+"-"+path.Base(fileName))
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}
