package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/common"
	"github.com/dmitrijs2005/salesdesk/internal/filex"
	sc "github.com/dmitrijs2005/salesdesk/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Archive is a stored export and where to download it from.
type Archive struct {
	Name      string
	URL       string
	ExpiresAt time.Time
}

// Archiver stores an export file.
type Archiver interface {
	Store(ctx context.Context, name string, data []byte) (*Archive, error)
}

var archiveNameRe = regexp.MustCompile(`^sales-\d{8}-\d{6}-[0-9a-f-]{36}\.csv$`)

// NewArchiveName returns a unique, sortable file name for a sales export.
func NewArchiveName(now time.Time) string {
	return fmt.Sprintf("sales-%s-%v.csv", now.UTC().Format("20060102-150405"), uuid.New())
}

// ValidArchiveName reports whether name could have come from NewArchiveName.
func ValidArchiveName(name string) bool {
	return archiveNameRe.MatchString(name)
}

// S3Archiver uploads exports to an S3 compatible bucket and hands out
// presigned download links.
type S3Archiver struct {
	config *sc.Config
}

func NewS3Archiver(cfg *sc.Config) *S3Archiver {
	return &S3Archiver{config: cfg}
}

func (a *S3Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(a.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (a *S3Archiver) Store(ctx context.Context, name string, data []byte) (*Archive, error) {
	client, err := a.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 config: %v", common.ErrorInternal, err)
	}

	bucket := a.config.S3Bucket
	key := "exports/" + name

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: s3 put: %v", common.ErrorInternal, err)
	}

	validity := a.config.ExportLinkValidityDuration
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("%w: s3 presign: %v", common.ErrorInternal, err)
	}

	return &Archive{Name: name, URL: req.URL, ExpiresAt: time.Now().Add(validity)}, nil
}

// LocalArchiver writes exports below a directory served by the API.
type LocalArchiver struct {
	dir     string
	urlBase string
}

// NewLocalArchiver creates dir (relative to the working directory) if needed.
// Links are urlBase + "/" + name.
func NewLocalArchiver(dir, urlBase string) (*LocalArchiver, error) {
	path, err := filex.EnsureSubdDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalArchiver{dir: path, urlBase: urlBase}, nil
}

func (a *LocalArchiver) Store(ctx context.Context, name string, data []byte) (*Archive, error) {
	if !ValidArchiveName(name) {
		return nil, fmt.Errorf("%w: bad archive name", common.ErrorInvalidInput)
	}
	if err := os.WriteFile(filepath.Join(a.dir, name), data, 0o640); err != nil {
		return nil, fmt.Errorf("%w: write archive: %v", common.ErrorInternal, err)
	}
	return &Archive{Name: name, URL: a.urlBase + "/" + name}, nil
}

// Path returns the file backing an archive produced by Store.
func (a *LocalArchiver) Path(name string) (string, error) {
	if !ValidArchiveName(name) {
		return "", fmt.Errorf("archive %w", common.ErrorNotFound)
	}
	p := filepath.Join(a.dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("archive %w", common.ErrorNotFound)
	}
	return p, nil
}
