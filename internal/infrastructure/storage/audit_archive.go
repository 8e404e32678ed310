package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/erp/ordertocash/internal/domain/audit"
	"go.uber.org/zap"
)

// DefaultAuditPrefix is the key prefix used when none is configured
const DefaultAuditPrefix = "audit"

// AuditArchive writes each audit entry as one JSON object. Keys are derived
// from the event id so a redelivered event overwrites its own object.
type AuditArchive struct {
	api    ObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

var _ audit.Sink = (*AuditArchive)(nil)

// NewAuditArchive creates an archive writing into bucket under prefix
func NewAuditArchive(api ObjectAPI, bucket, prefix string, logger *zap.Logger) *AuditArchive {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultAuditPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditArchive{api: api, bucket: bucket, prefix: prefix, logger: logger}
}

// Write uploads every entry; failures are joined and returned
func (a *AuditArchive) Write(ctx context.Context, entries ...audit.Entry) error {
	var errs []error
	for i := range entries {
		if err := a.put(ctx, &entries[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *AuditArchive) put(ctx context.Context, e *audit.Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry %s: %w", e.EventID, err)
	}
	key := a.Key(e)
	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"entity-type": e.EntityType,
			"action":      e.Action,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to archive audit entry %s: %w", e.EventID, err)
	}
	a.logger.Debug("Audit entry archived", zap.String("key", key))
	return nil
}

// Key returns prefix/entity_type/yyyy/mm/dd/entity_id/event_id.json
func (a *AuditArchive) Key(e *audit.Entry) string {
	at := e.OccurredAt.UTC()
	return path.Join(
		a.prefix,
		strings.ToLower(e.EntityType),
		at.Format("2006/01/02"),
		e.EntityID.String(),
		e.EventID.String()+".json",
	)
}
