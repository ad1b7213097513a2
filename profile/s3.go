package profile

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// s3Store loads a single-object device profile from S3: s3://bucket/key.
type s3Store struct {
	bucket, key string
}

func newS3Store(uri string) (*s3Store, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("profile: malformed s3 uri %q, want s3://bucket/key", uri)
	}
	return &s3Store{bucket: parts[0], key: parts[1]}, nil
}

func (s *s3Store) Load(ctx context.Context) (*Device, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "profile: load aws config")
	}
	client := s3.NewFromConfig(cfg)

	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(client)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}); err != nil {
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) {
			return nil, errors.Wrapf(err, "profile: download s3://%s/%s (%s)", s.bucket, s.key, apiErr.ErrorCode())
		}
		return nil, errors.Wrapf(err, "profile: download s3://%s/%s", s.bucket, s.key)
	}

	return decodeDevice(buf.Bytes())
}
