package announcement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/obi2na/courier/internal/db/models"
	"github.com/obi2na/courier/internal/logger"
	utils "github.com/obi2na/courier/internal/pkg"
	"go.uber.org/zap"
)

// RecordStore writes the remote post link back onto announcements. The update
// sets absolute values, so repeating it with the same arguments is a no-op.
type RecordStore struct {
	queries models.Querier
}

func NewRecordStore(queries models.Querier) *RecordStore {
	return &RecordStore{queries: queries}
}

func (s *RecordStore) UpdateRemotePost(ctx context.Context, sourceID string, remotePostID int64, isCustomPostType bool) error {
	id, err := uuid.Parse(sourceID)
	if err != nil {
		return fmt.Errorf("invalid announcement id %q: %w", sourceID, err)
	}

	rows, err := s.queries.UpdateAnnouncementRemotePost(ctx, models.UpdateAnnouncementRemotePostParams{
		ID:               id,
		WpPostID:         utils.NullInt8(remotePostID),
		IsCustomPostType: isCustomPostType,
	})
	if err != nil {
		logger.With(ctx).Error("UpdateAnnouncementRemotePost query failed", zap.Error(err))
		return err
	}
	if rows == 0 {
		return ErrAnnouncementNotFound
	}

	logger.With(ctx).Info("announcement linked to remote post",
		zap.String("announcement_id", sourceID),
		zap.Int64("remote_post_id", remotePostID),
		zap.Bool("custom_post_type", isCustomPostType),
	)
	return nil
}
