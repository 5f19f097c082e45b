// Package job runs background maintenance over archived snapshots.
package job

import (
	"context"
	"fmt"
	"time"

	"StoryVault/repositories"
	"StoryVault/storage"

	"github.com/sirupsen/logrus"
)

const defaultBatchSize = 100

// ReconciliationReport summarizes one pass over the archive history.
type ReconciliationReport struct {
	Checked int
	Missing []uint
	Pruned  int
}

// ArchiveReconciler finds history entries whose archived blob no longer
// exists in storage.
type ArchiveReconciler struct {
	repo      repositories.BackupRepository
	storage   storage.Storage
	batchSize int
	prune     bool
}

func NewArchiveReconciler(repo repositories.BackupRepository, store storage.Storage, prune bool) *ArchiveReconciler {
	return &ArchiveReconciler{
		repo:      repo,
		storage:   store,
		batchSize: defaultBatchSize,
		prune:     prune,
	}
}

// Run checks every archived entry once, in batches. With prune enabled the
// entries of missing blobs are deleted.
func (r *ArchiveReconciler) Run(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{}
	var afterID uint

	for {
		batch, err := r.repo.ListArchivedAfter(ctx, afterID, r.batchSize)
		if err != nil {
			return report, fmt.Errorf("failed to list archives: %w", err)
		}
		if len(batch) == 0 {
			return report, nil
		}

		for i := range batch {
			entry := &batch[i]
			afterID = entry.ID
			report.Checked++

			exists, err := r.storage.Exists(ctx, entry.ObjectKey)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"history_id": entry.ID,
					"key":        entry.ObjectKey,
					"error":      err,
				}).Warn("Could not check archive")
				continue
			}
			if exists {
				continue
			}

			report.Missing = append(report.Missing, entry.ID)
			logrus.WithFields(logrus.Fields{
				"history_id": entry.ID,
				"user_id":    entry.UserID,
				"key":        entry.ObjectKey,
			}).Warn("Archived snapshot is missing from storage")

			if r.prune {
				if err := r.repo.DeleteHistory(ctx, entry); err != nil {
					return report, fmt.Errorf("failed to prune history %d: %w", entry.ID, err)
				}
				report.Pruned++
			}
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}
}

// Start runs the reconciler every interval until ctx is done.
func (r *ArchiveReconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		logrus.Info("Starting archive reconciliation")
		report, err := r.Run(ctx)
		if err != nil {
			logrus.WithError(err).Error("Archive reconciliation failed")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"checked": report.Checked,
			"missing": len(report.Missing),
			"pruned":  report.Pruned,
		}).Info("Archive reconciliation completed")
	}
}
