package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"clinsynth/internal/config"
	"clinsynth/internal/domain"
	"clinsynth/internal/port"
)

// Object metadata written by the upload collaborator alongside the extracted text.
const (
	metaDocumentID  = "document-id"
	metaDisplayName = "display-name"
	metaMIMEType    = "source-mime-type"
)

const maxParallelLoads = 8

// ObjectAPI is the subset of the S3 client used to read extracted text.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type documentSource struct {
	client ObjectAPI
	bucket string
}

// NewDocumentSource creates an S3-backed DocumentSource reading from cfg.Bucket.
func NewDocumentSource(cfg *config.S3Config) (port.DocumentSource, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewDocumentSourceWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket), nil
}

// NewDocumentSourceWithClient creates a DocumentSource over an existing client.
func NewDocumentSourceWithClient(client ObjectAPI, bucket string) port.DocumentSource {
	return &documentSource{client: client, bucket: bucket}
}

// Load fetches every key concurrently. The result keeps the order of keys, and the
// first failure cancels the remaining downloads.
func (s *documentSource) Load(ctx context.Context, keys []string) ([]domain.SourceDocument, error) {
	docs := make([]domain.SourceDocument, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, key := range keys {
		g.Go(func() error {
			doc, err := s.load(ctx, key)
			if err != nil {
				return err
			}
			docs[i] = *doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *documentSource) load(ctx context.Context, key string) (*domain.SourceDocument, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3 get %s: %w", key, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("s3 read %s: extracted text is not valid UTF-8", key)
	}

	doc := &domain.SourceDocument{
		ID:            key,
		DisplayName:   path.Base(key),
		ExtractedText: string(data),
	}
	if v := out.Metadata[metaDocumentID]; v != "" {
		doc.ID = v
	}
	if v := out.Metadata[metaDisplayName]; v != "" {
		doc.DisplayName = v
	}
	switch {
	case out.Metadata[metaMIMEType] != "":
		doc.MIMEType = out.Metadata[metaMIMEType]
	case out.ContentType != nil:
		doc.MIMEType = strings.TrimSpace(strings.Split(aws.ToString(out.ContentType), ";")[0])
	}
	return doc, nil
}
