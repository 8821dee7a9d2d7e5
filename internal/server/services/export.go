package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	sc "github.com/dmitrijs2005/daybook/internal/server/config"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
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

// ExportHeader is the CSV header written by exports. The importer accepts
// the same columns.
var ExportHeader = []string{"title", "data", "date"}

// ExportResult describes an uploaded export.
type ExportResult struct {
	Key       string
	URL       string
	Count     int
	ExpiresAt time.Time
}

// ExportService renders a user's canonical entries as CSV, uploads the file
// to S3 and hands out a presigned download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	now         func() time.Time
}

// NewExportService constructs an ExportService; the S3 bucket and link
// lifetime come from cfg.
func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *ExportService {
	return &ExportService{db: db, repomanager: m, config: cfg, now: time.Now}
}

// ExportStorageKey returns exports/{user}/{yyyy}/{mm}/{dd}/{uuid}.csv.
func ExportStorageKey(userID string, d time.Time) string {
	return fmt.Sprintf("exports/%s/%04d/%02d/%02d/%s.csv", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// RenderCSV writes entries as title,data,date rows. Bodies are reduced to
// plain text and dates use RFC 3339.
func RenderCSV(list []*models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return nil, err
	}
	for _, e := range list {
		row := []string{e.Title, richtext.ToText(e.Body), e.CreatedAt.Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads every canonical entry of the user and returns a link that
// stays valid for the configured export link validity.
func (s *ExportService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}

	list, err := s.repomanager.Entries(s.db).List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	data, err := RenderCSV(list)
	if err != nil {
		return nil, fmt.Errorf("error rendering export: %w", err)
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bucket := s.config.S3Bucket
	key := ExportStorageKey(userID, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	validity := s.config.ExportLinkValidity
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("error presigning export: %w", err)
	}

	return &ExportResult{Key: key, URL: req.URL, Count: len(list), ExpiresAt: now.Add(validity)}, nil
}
