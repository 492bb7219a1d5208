package utils

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the single S3 call the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archiver stores raw settlement notifications in a Cloudflare R2 bucket.
type R2Archiver struct {
	client ObjectPutter
	bucket string
}

func NewR2Archiver(client ObjectPutter, bucket string) *R2Archiver {
	return &R2Archiver{client: client, bucket: bucket}
}

// NewR2ArchiverFromCredentials builds an S3 client against the account's R2 endpoint.
func NewR2ArchiverFromCredentials(ctx context.Context, accountID, accessKeyID, accessKeySecret, bucket string) (*R2Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
	return NewR2Archiver(client, bucket), nil
}

// WebhookKey is webhooks/<yyyy>/<mm>/<dd>/<orderId>-<unix-nanos>.json in UTC.
func WebhookKey(orderID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("webhooks/%04d/%02d/%02d/%s-%d.json", at.Year(), at.Month(), at.Day(), orderID, at.UnixNano())
}

// ArchiveWebhook uploads body and returns the object key.
func (a *R2Archiver) ArchiveWebhook(ctx context.Context, orderID string, body []byte, at time.Time) (string, error) {
	key := WebhookKey(orderID, at)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return key, nil
}
