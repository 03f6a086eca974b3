package readers

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

func init() {
	Register("gs", openGCS)
}

func openGCS(ctx context.Context, bucket, key string) (io.ReadSeekCloser, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	object := client.Bucket(bucket).Object(key)
	r, err := object.NewReader(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, key, err)
	}
	return &remoteObject{
		body: r,
		size: r.Attrs.Size,
		reopen: func(offset int64) (io.ReadCloser, error) {
			return object.NewRangeReader(ctx, offset, -1)
		},
		done: client.Close,
	}, nil
}
