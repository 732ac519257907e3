package courier

import (
	"time"

	"github.com/obi2na/courier/internal/wordpress"
)

// PublishToSiteRequest is the body of POST /api/sites/:siteId/publish.
type PublishToSiteRequest struct {
	SourceID         string     `json:"source_id" binding:"required"`
	Title            string     `json:"title" binding:"required"`
	BodyHTML         string     `json:"body_html"`
	Status           string     `json:"status" binding:"required,oneof=draft published scheduled"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	Images           []string   `json:"images,omitempty"`
	SEOTitle         string     `json:"seo_title,omitempty"`
	SEODescription   string     `json:"seo_description,omitempty"`
	TargetCategoryID int64      `json:"target_category_id" binding:"required,gt=0"`
	RemotePostID     int64      `json:"remote_post_id,omitempty" binding:"gte=0"`
}

func (r PublishToSiteRequest) ToPublishRequest() wordpress.PublishRequest {
	return wordpress.PublishRequest{
		SourceID:         r.SourceID,
		Title:            r.Title,
		BodyHTML:         r.BodyHTML,
		Status:           wordpress.Status(r.Status),
		ScheduledAt:      r.ScheduledAt,
		Images:           r.Images,
		SEOTitle:         r.SEOTitle,
		SEODescription:   r.SEODescription,
		TargetCategoryID: r.TargetCategoryID,
		RemotePostID:     r.RemotePostID,
	}
}

type PublishResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	RemotePostID *int64              `json:"remote_post_id"`
	PostURL      string              `json:"post_url,omitempty"`
	AuthMethod   string              `json:"auth_method,omitempty"`
	FallbackUsed bool                `json:"fallback_used"`
	Warnings     []wordpress.Warning `json:"warnings,omitempty"`
}

func NewPublishResponse(out wordpress.Outcome) PublishResponse {
	return PublishResponse{
		Success:      out.Success,
		Message:      out.Message,
		RemotePostID: out.RemotePostID,
		PostURL:      out.PostURL,
		AuthMethod:   string(out.AuthMethod),
		FallbackUsed: out.FallbackUsed,
		Warnings:     out.Warnings,
	}
}
