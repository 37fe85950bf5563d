package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/justapithecus/adit/iox"
)

// S3Config holds configuration for the S3 fetch source.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix the log resources live under (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// S3Source reads log resources as objects in an S3 bucket.
// CI producers that stream logs straight to a bucket are read here
// without a web server in front.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source creates an S3 fetch source.
// Uses the AWS SDK default credential chain (env vars, shared config,
// IAM role).
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client: s3.NewFromConfig(awsConfig, s3Opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// NewS3SourceWithClient creates an S3 source around an existing client.
// Used by tests and callers that configure the SDK themselves.
func NewS3SourceWithClient(client *s3.Client, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// Read fetches the object, requesting a byte range when offset is
// positive. S3 honors range requests, so no local slicing is needed.
func (s *S3Source) Read(ctx context.Context, name string, offset int64) (string, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	input := &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}
	if offset > 0 {
		byteRange := fmt.Sprintf("bytes=%d-", offset)
		input.Range = &byteRange
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		classified := classifyS3Error(name, err)
		if errors.Is(classified, errEmptyRange) {
			return "", nil
		}
		return "", classified
	}
	defer iox.DrainClose(out.Body)

	body, err := io.ReadAll(out.Body)
	if err != nil {
		// Truncated body: the request never completed, transient.
		return "", fmt.Errorf("s3 source: %s: truncated body: %w", name, err)
	}
	return string(body), nil
}

// classifyS3Error maps S3 API errors onto the fetch error taxonomy.
// A completed API error response is permanent; connection-level failures
// stay transient.
func classifyS3Error(name string, err error) error {
	var apiErr interface{ ErrorCode() string }
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("s3 source: %s: %w", name, err)
	}

	switch apiErr.ErrorCode() {
	case "InvalidRange":
		// Offset at or past end of object: nothing new to read.
		// Callers receive empty content, mirroring the HTTP 416 case.
		return errEmptyRange
	default:
		return fmt.Errorf("s3 source: %s: %s: %w", name, apiErr.ErrorCode(), ErrNotFound)
	}
}

// errEmptyRange signals a range starting at EOF; Read converts it to
// empty content.
var errEmptyRange = errors.New("range starts at end of object")
