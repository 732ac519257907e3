package wordpress

import (
	"strings"
	"time"
)

// wordpressDate is the ISO-8601 layout the REST API accepts for post dates.
const wordpressDate = "2006-01-02T15:04:05.000Z"

// SEOMeta is written through the post meta field registered by Yoast SEO.
type SEOMeta struct {
	Title       string `json:"_yoast_wpseo_title,omitempty"`
	Description string `json:"_yoast_wpseo_metadesc,omitempty"`
}

// PostPayload is the JSON body of a post create or update.
type PostPayload struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Status           string   `json:"status"`
	Date             string   `json:"date,omitempty"`
	FeaturedMedia    int64    `json:"featured_media,omitempty"`
	Categories       []int64  `json:"categories,omitempty"`
	CustomCategories []int64  `json:"dipi_cpt_category,omitempty"`
	Meta             *SEOMeta `json:"meta,omitempty"`
}

// FollowUpPatch re-applies fields some custom post type plugins drop on create.
type FollowUpPatch struct {
	CustomCategories []int64 `json:"dipi_cpt_category,omitempty"`
	FeaturedMedia    int64   `json:"featured_media,omitempty"`
}

// Compose maps a request onto the payload shape the probed site expects.
// A zero mediaID means no featured image.
func Compose(req PublishRequest, caps Capabilities, mediaID int64) PostPayload {
	p := PostPayload{
		Title:   req.Title,
		Content: req.BodyHTML,
		Status:  req.Status.remoteStatus(),
	}
	if req.Status == StatusScheduled && req.ScheduledAt != nil {
		p.Date = req.ScheduledAt.UTC().Format(wordpressDate)
	}
	if mediaID > 0 {
		p.FeaturedMedia = mediaID
	}
	if caps.UsesCustomTaxonomy() {
		p.CustomCategories = []int64{req.TargetCategoryID}
	} else {
		p.Categories = []int64{req.TargetCategoryID}
	}

	seoTitle := strings.TrimSpace(req.SEOTitle)
	seoDescription := strings.TrimSpace(req.SEODescription)
	if seoTitle != "" || seoDescription != "" {
		p.Meta = &SEOMeta{Title: seoTitle, Description: seoDescription}
	}
	return p
}

// ComposeFollowUp returns the patch to issue after creating a post on a custom
// post type site. ok is false when no patch is needed.
func ComposeFollowUp(req PublishRequest, caps Capabilities, mediaID int64) (patch FollowUpPatch, ok bool) {
	if !caps.UsesCustomTaxonomy() {
		return FollowUpPatch{}, false
	}
	patch.CustomCategories = []int64{req.TargetCategoryID}
	if mediaID > 0 {
		patch.FeaturedMedia = mediaID
	}
	return patch, true
}

// expectedStatuses lists the remote statuses that confirm a request landed.
func expectedStatuses(s Status) []string {
	switch s {
	case StatusPublished:
		return []string{"publish"}
	case StatusScheduled:
		// a schedule whose time passed while we waited is published immediately
		return []string{"future", "publish"}
	default:
		return []string{"draft", "pending"}
	}
}

func scheduledLabel(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC1123)
}
