package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"listing-hand/config"
)

// ReportArchive legt die Roh-Ergebnisse abgeschlossener Reports gzip-
// komprimiert in einem S3-kompatiblen Bucket ab. Optional; ohne Bucket-
// Konfiguration läuft die Pipeline ohne Archiv.
type ReportArchive struct {
	client *s3.Client
	bucket string
	url    string
	logger *zap.Logger
}

// NewReportArchive erstellt das Archiv samt S3-Client.
func NewReportArchive(cfg *config.Config, logger *zap.Logger) (*ReportArchive, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ArchiveS3URL,
				SigningRegion:     cfg.ArchiveS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ArchiveS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArchiveS3Key, cfg.ArchiveS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return &ReportArchive{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.ArchiveS3Bucket,
		url:    cfg.ArchiveS3URL,
		logger: logger,
	}, nil
}

// StoreReport schreibt das Roh-Payload eines Reports ins Archiv und gibt den
// Objekt-Link zurück.
func (a *ReportArchive) StoreReport(ctx context.Context, locationID uint, reportID string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("citation-reports/%d/%s-%s.json.gz",
		locationID, reportID, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", err
	}

	link := fmt.Sprintf("%s/%s/%s", a.url, a.bucket, key)
	a.logger.Debug("Report payload archived", zap.String("key", key))
	return link, nil
}
