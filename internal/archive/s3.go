package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"pedit/internal/edit"
)

// S3Config holds construction parameters for an S3 archive.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string // defaults to us-east-1
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	PathStyle       bool
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
}

// S3Archive stores backups as objects in a single bucket:
//
//	<prefix><name>/<version>.bak
type S3Archive struct {
	name     string
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Archive creates an S3 archive from cfg.
func NewS3Archive(ctx context.Context, name string, cfg S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3ArchiveFromClient(name, client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3ArchiveFromClient wraps an existing S3 client.
func NewS3ArchiveFromClient(name string, client *s3.Client, bucket, prefix string) *S3Archive {
	return &S3Archive{
		name:     name,
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (a *S3Archive) namePrefix(name string) string {
	return a.prefix + name + "/"
}

func (a *S3Archive) key(name string, version int64) string {
	return a.namePrefix(name) + versionKey(version) + backupExt
}

// PutBackup uploads a backup. Large backups are sent as multipart uploads.
func (a *S3Archive) PutBackup(name string, version int64, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	counter := &countingReader{r: r}
	_, err := a.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(name, version)),
		Body:   counter,
	})
	if err != nil {
		return fmt.Errorf("uploading backup: %w", err)
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return nil
}

// GetBackup downloads the backup of name at version into w.
func (a *S3Archive) GetBackup(name string, version int64, w io.Writer) error {
	if err := validateName(name); err != nil {
		return err
	}
	out, err := a.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(name, version)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("%w: %s version %d", ErrBackupNotFound, name, version)
		}
		return fmt.Errorf("downloading backup: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	return nil
}

// ListBackups returns the stored versions of name in ascending order.
func (a *S3Archive) ListBackups(name string) ([]int64, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	prefix := a.namePrefix(name)
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})

	var versions []int64
	for p.HasMorePages() {
		page, err := p.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing backups: %w", err)
		}
		for _, obj := range page.Contents {
			base, ok := strings.CutSuffix(path.Base(aws.ToString(obj.Key)), backupExt)
			if !ok {
				continue
			}
			v, err := strconv.ParseInt(base, 10, 64)
			if err != nil {
				continue
			}
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// ValidateSetup verifies that the bucket exists and is reachable.
func (a *S3Archive) ValidateSetup() error {
	_, err := a.client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		return fmt.Errorf("s3 bucket %q not accessible: %w", a.bucket, err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Name returns the archive's name.
func (a *S3Archive) Name() string {
	return a.name
}

// Compile-time check that S3Archive implements edit.Archive interface
var _ edit.Archive = (*S3Archive)(nil)
