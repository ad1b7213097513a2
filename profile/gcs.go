package profile

import (
	"context"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// gcsStore loads a single-object device profile from GCS: gs://bucket/object.
type gcsStore struct {
	bucket, object string
}

func newGCSStore(uri string) (*gcsStore, error) {
	rest := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("profile: malformed gs uri %q, want gs://bucket/object", uri)
	}
	return &gcsStore{bucket: parts[0], object: parts[1]}, nil
}

func (s *gcsStore) Load(ctx context.Context) (*Device, error) {
	client, err := gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadOnly))
	if err != nil {
		return nil, errors.Wrap(err, "profile: new gcs client")
	}
	defer client.Close()

	r, err := client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "profile: open gs://%s/%s", s.bucket, s.object)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "profile: read gs://%s/%s", s.bucket, s.object)
	}
	return decodeDevice(raw)
}
