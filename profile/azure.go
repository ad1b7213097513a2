package profile

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/pkg/errors"
)

// azureStore loads a single-blob device profile: azblob://account/container/blob.
type azureStore struct {
	account, container, blob string
}

func newAzureStore(uri string) (*azureStore, error) {
	rest := strings.TrimPrefix(uri, "azblob://")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return nil, errors.Errorf("profile: malformed azblob uri %q, want azblob://account/container/blob", uri)
	}
	return &azureStore{account: parts[0], container: parts[1], blob: parts[2]}, nil
}

func (s *azureStore) Load(ctx context.Context) (*Device, error) {
	serviceURL := "https://" + s.account + ".blob.core.windows.net/"
	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "profile: new azure client for %s", s.account)
	}

	resp, err := client.DownloadStream(ctx, s.container, s.blob, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if stderrors.As(err, &respErr) {
			return nil, errors.Wrapf(err, "profile: download azblob://%s/%s/%s (%s)", s.account, s.container, s.blob, respErr.ErrorCode)
		}
		return nil, errors.Wrapf(err, "profile: download azblob://%s/%s/%s", s.account, s.container, s.blob)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, errors.Wrap(err, "profile: read azure blob body")
	}
	return decodeDevice(buf.Bytes())
}
