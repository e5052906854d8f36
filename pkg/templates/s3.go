package templates

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/timothycrosley/blox/internal/errors"
)

// S3API is the part of *s3.Client used by S3Loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader loads templates from an S3 bucket.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	loader := templates.NewS3Loader(s3.NewFromConfig(cfg), "my-bucket", "templates/")
type S3Loader struct {
	client S3API
	bucket string
	prefix string

	// Extensions overrides DefaultExtensions.
	Extensions []string
}

// NewS3Loader creates a loader reading prefix+name+ext from bucket.
func NewS3Loader(client S3API, bucket, prefix string) *S3Loader {
	return &S3Loader{client: client, bucket: bucket, prefix: prefix}
}

// Load implements Loader.
func (l *S3Loader) Load(ctx context.Context, name string) (*File, error) {
	for _, p := range candidates(name, l.Extensions) {
		key := l.prefix + p
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(key),
		})
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, errors.New("E061").Wrap(err).WithDetailf("s3://%s/%s: %v", l.bucket, key, err)
		}

		data, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return nil, errors.New("E061").Wrap(err).WithDetailf("s3://%s/%s: %v", l.bucket, key, err)
		}
		return &File{Name: name, Path: p, Data: data}, nil
	}
	return nil, errors.New("E060").WithDetailf("%q in s3://%s/%s", name, l.bucket, l.prefix)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return stderrors.As(err, &nsk) || stderrors.As(err, &nf)
}
