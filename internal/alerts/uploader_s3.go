package alerts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the uploader needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader implements Uploader against an S3 bucket, writing archives
// to the Glacier storage class.
type S3Uploader struct {
	client S3API
	bucket string
}

// NewS3Uploader creates an S3Uploader for the given bucket.
func NewS3Uploader(client S3API, bucket string) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
	}
}

// UploadArchive uploads a compressed alert batch under the given key.
func (u *S3Uploader) UploadArchive(ctx context.Context, key string, data []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/zstd"),
		StorageClass: s3types.StorageClassGlacier,
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", u.bucket, key, err)
	}
	return nil
}

var _ Uploader = (*S3Uploader)(nil)
