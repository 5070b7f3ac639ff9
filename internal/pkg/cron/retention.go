package cron

import (
	"context"
	"time"
)

// NotificationPurger is the slice of the notification service the
// retention job needs.
type NotificationPurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NotificationRetentionJob deletes read notifications older than maxAge.
func NotificationRetentionJob(purger NotificationPurger, maxAge time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := purger.PurgeRead(ctx, maxAge)
		return err
	}
}
