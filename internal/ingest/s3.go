package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Source pulls CSV drops from an S3 bucket and feeds them through the
// importer. Marketing platforms export weekly metric files to a shared
// prefix; the puller walks the prefix and imports every .csv it finds.
type S3Source struct {
	client   *s3.Client
	bucket   string
	prefix   string
	importer *Importer
}

// NewS3Source creates an S3-backed import source.
func NewS3Source(ctx context.Context, bucket, prefix, region, profile string, importer *Importer) (*S3Source, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Source{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		prefix:   prefix,
		importer: importer,
	}, nil
}

// PullAll imports every .csv object under the configured prefix. Results are
// aggregated across files; a failing object is counted and skipped rather
// than aborting the pull.
func (s *S3Source) PullAll(ctx context.Context) (*Result, error) {
	total := &Result{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing S3 objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, ".csv") {
				continue
			}
			res, err := s.importObject(ctx, *obj.Key)
			if err != nil {
				log.Printf("[ingest.S3Source] %s: %v", *obj.Key, err)
				total.Skipped++
				continue
			}
			total.Imported += res.Imported
			total.Skipped += res.Skipped
			total.RowErrors = append(total.RowErrors, res.RowErrors...)
		}
	}

	return total, nil
}

func (s *S3Source) importObject(ctx context.Context, key string) (*Result, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object from S3: %w", err)
	}
	defer out.Body.Close()

	return s.importer.ImportFromReader(ctx, out.Body, key)
}
