package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	conf "github.com/webitel/table-importer/config"
	"github.com/webitel/table-importer/internal/errors"
)

// deleteBatchSize matches the S3 DeleteObjects request limit.
const deleteBatchSize = 1000

type Store struct {
	client *awss3.S3
	bucket string
}

// New connects to the configured bucket. A non-empty endpoint switches to an
// S3-compatible store (MinIO etc.) with path-style addressing.
func New(config *conf.StorageConfig) (*Store, error) {
	awsCfg := aws.NewConfig().WithRegion(config.Region)
	if config.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(config.Endpoint).WithS3ForcePathStyle(true)
	}
	if config.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Internal("unable to create S3 session", errors.WithCause(err))
	}

	return &Store{client: awss3.New(sess), bucket: config.Bucket}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	err := s.client.ListObjectsV2PagesWithContext(ctx, input,
		func(page *awss3.ListObjectsV2Output, _ bool) bool {
			for _, obj := range page.Contents {
				keys = append(keys, aws.StringValue(obj.Key))
			}
			return true
		})
	if err != nil {
		return nil, errors.Internal("unable to list objects", errors.WithCause(err))
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		objects := make([]*awss3.ObjectIdentifier, 0, len(batch))
		for _, key := range batch {
			objects = append(objects, &awss3.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjectsWithContext(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &awss3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Internal("unable to delete objects", errors.WithCause(err))
		}
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := s.client.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          aws.ReadSeekCloser(body),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return errors.Internal("unable to put object", errors.WithCause(err))
	}
	return nil
}
