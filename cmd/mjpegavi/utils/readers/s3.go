package readers

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	Register("s3", openS3)
}

// openS3 tries anonymous credentials first so public buckets work
// without a configured profile, then retries with the default chain.
func openS3(ctx context.Context, bucket, key string) (io.ReadSeekCloser, error) {
	anon, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	obj, anonErr := openS3Object(ctx, s3.NewFromConfig(anon), bucket, key)
	if anonErr == nil {
		return obj, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	obj, err = openS3Object(ctx, s3.NewFromConfig(cfg), bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open s3://%s/%s: %w", bucket, key, err)
	}
	return obj, nil
}

func openS3Object(ctx context.Context, client *s3.Client, bucket, key string) (io.ReadSeekCloser, error) {
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	var size int64
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}
	return &remoteObject{
		body: resp.Body,
		size: size,
		reopen: func(offset int64) (io.ReadCloser, error) {
			out, err := client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: &bucket,
				Key:    &key,
				Range:  aws.String(fmt.Sprintf("bytes=%d-", offset)),
			})
			if err != nil {
				return nil, err
			}
			return out.Body, nil
		},
	}, nil
}
