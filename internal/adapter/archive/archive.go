// Package archive keeps a copy of every downloaded spreadsheet in an
// S3-compatible bucket (AWS S3 or MinIO).
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/heartmarshall/eecc-crawler/internal/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object is a spreadsheet to archive.
type Object struct {
	FileName  string
	SourceURL string
	Body      []byte
}

// Store writes objects under a date-partitioned, content-addressed key.
type Store struct {
	client putObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// New builds an S3 client from the default credential chain. optFns tweak
// the client, e.g. to swap the HTTP transport.
func New(ctx context.Context, cfg config.ArchiveConfig, optFns ...func(*s3.Options)) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("archive: s3 bucket required")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	}}, optFns...)

	return &Store{
		client: s3.NewFromConfig(awsCfg, opts...),
		bucket: cfg.S3Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// Put uploads obj and returns the object key.
func (s *Store) Put(ctx context.Context, obj Object) (string, error) {
	key := s.key(obj)

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String(xlsxContentType),
	}
	if obj.SourceURL != "" {
		in.Metadata = map[string]string{"source-url": obj.SourceURL}
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("archive: put %s: %w", key, err)
	}
	return key, nil
}

func (s *Store) key(obj Object) string {
	sum := sha256.Sum256(obj.Body)
	name := path.Base(obj.FileName)
	if name == "." || name == "/" || name == "" {
		name = "spreadsheet.xlsx"
	}
	return s.prefix + s.now().UTC().Format("2006/01/02") + "/" + hex.EncodeToString(sum[:])[:12] + "-" + name
}
