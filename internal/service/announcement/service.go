package announcement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/obi2na/courier/internal/db/models"
	"github.com/obi2na/courier/internal/logger"
	utils "github.com/obi2na/courier/internal/pkg"
	"github.com/obi2na/courier/internal/wordpress"
	"go.uber.org/zap"
)

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrSiteNotFound         = errors.New("wordpress site not found")
)

// Publisher runs one publish attempt. *wordpress.Pipeline satisfies it.
type Publisher interface {
	Run(ctx context.Context, req wordpress.PublishRequest, target wordpress.SiteTarget, observer wordpress.Observer) wordpress.Outcome
}

type Service interface {
	// Publish sends req to the configured site. Failures are reported in the
	// outcome, never as an error.
	Publish(ctx context.Context, req wordpress.PublishRequest, siteID uuid.UUID, observer wordpress.Observer) wordpress.Outcome
	// PublishAnnouncement loads the stored announcement and publishes it to its
	// site. The error is non-nil only when the record cannot be found.
	PublishAnnouncement(ctx context.Context, announcementID uuid.UUID, observer wordpress.Observer) (wordpress.Outcome, error)
}

type AnnouncementService struct {
	queries   models.Querier
	publisher Publisher
}

func NewAnnouncementService(queries models.Querier, publisher Publisher) *AnnouncementService {
	return &AnnouncementService{
		queries:   queries,
		publisher: publisher,
	}
}

func (s *AnnouncementService) Publish(ctx context.Context, req wordpress.PublishRequest, siteID uuid.UUID, observer wordpress.Observer) wordpress.Outcome {
	site, err := s.queries.GetSiteConfigByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.With(ctx).Warn("publish requested for unknown site", zap.String("site_id", siteID.String()))
			return configurationFailure(fmt.Sprintf("site %s is not configured", siteID))
		}
		logger.With(ctx).Error("GetSiteConfigByID query failed", zap.Error(err))
		return configurationFailure("site configuration could not be loaded")
	}
	return s.publisher.Run(ctx, req, SiteTarget(site), observer)
}

func (s *AnnouncementService) PublishAnnouncement(ctx context.Context, announcementID uuid.UUID, observer wordpress.Observer) (wordpress.Outcome, error) {
	a, err := s.queries.GetAnnouncementByID(ctx, announcementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wordpress.Outcome{}, ErrAnnouncementNotFound
		}
		logger.With(ctx).Error("GetAnnouncementByID query failed", zap.Error(err))
		return wordpress.Outcome{}, fmt.Errorf("loading announcement: %w", err)
	}

	site, err := s.queries.GetSiteConfigByID(ctx, a.SiteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wordpress.Outcome{}, ErrSiteNotFound
		}
		logger.With(ctx).Error("GetSiteConfigByID query failed", zap.Error(err))
		return wordpress.Outcome{}, fmt.Errorf("loading site: %w", err)
	}

	logger.With(ctx).Info("publishing announcement",
		zap.String("announcement_id", a.ID.String()),
		zap.String("site", site.Name),
		zap.String("status", a.Status),
	)
	return s.publisher.Run(ctx, PublishRequest(a), SiteTarget(site), observer), nil
}

func configurationFailure(msg string) wordpress.Outcome {
	return wordpress.Outcome{
		Success:     false,
		Message:     fmt.Sprintf("%s: %s", wordpress.KindConfiguration, msg),
		FailureKind: wordpress.KindConfiguration,
	}
}

// PublishRequest maps a stored announcement onto the pipeline's unit of work.
func PublishRequest(a models.Announcement) wordpress.PublishRequest {
	return wordpress.PublishRequest{
		SourceID:         a.ID.String(),
		Title:            a.Title,
		BodyHTML:         a.BodyHtml,
		Status:           wordpress.Status(a.Status),
		ScheduledAt:      utils.Time(a.ScheduledAt),
		Images:           a.Images,
		SEOTitle:         utils.Text(a.SeoTitle),
		SEODescription:   utils.Text(a.SeoDescription),
		TargetCategoryID: a.CategoryID,
		RemotePostID:     utils.Int8(a.WpPostID),
	}
}

// SiteTarget collects every credential configured for a site. Ordering is
// decided by the pipeline, not here.
func SiteTarget(site models.WordpressSite) wordpress.SiteTarget {
	var creds []wordpress.Credential
	if u, p := utils.Text(site.AppUsername), utils.Text(site.AppPassword); u != "" || p != "" {
		creds = append(creds, wordpress.Credential{Kind: wordpress.CredentialApplicationPassword, Username: u, Password: p})
	}
	if tok := utils.Text(site.BearerToken); tok != "" {
		creds = append(creds, wordpress.Credential{Kind: wordpress.CredentialBearerToken, Token: tok})
	}
	if u, p := utils.Text(site.LegacyUsername), utils.Text(site.LegacyPassword); u != "" || p != "" {
		creds = append(creds, wordpress.Credential{Kind: wordpress.CredentialLegacyBasic, Username: u, Password: p})
	}
	if u, p := utils.Text(site.CookieUsername), utils.Text(site.CookiePassword); u != "" || p != "" {
		creds = append(creds, wordpress.Credential{Kind: wordpress.CredentialCookieSession, Username: u, Password: p})
	}
	return wordpress.SiteTarget{BaseURL: site.BaseUrl, Credentials: creds}
}
