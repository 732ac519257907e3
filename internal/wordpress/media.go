package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const defaultMaxImageBytes = 20 << 20

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// MediaUploader copies an image into a site's media library.
type MediaUploader struct {
	client        *Client
	fetchTimeout  time.Duration
	uploadTimeout time.Duration
	maxBytes      int64
}

func NewMediaUploader(client *Client, fetchTimeout, uploadTimeout time.Duration, maxBytes int64) *MediaUploader {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &MediaUploader{
		client:        client,
		fetchTimeout:  fetchTimeout,
		uploadTimeout: uploadTimeout,
		maxBytes:      maxBytes,
	}
}

type mediaResponse struct {
	ID int64 `json:"id"`
}

// Upload fetches imageURL and posts it to the site's media endpoint using the
// given strategy. It does not walk the credential fallback chain.
func (m *MediaUploader) Upload(ctx context.Context, imageURL string, target SiteTarget, auth Strategy, title string) (int64, error) {
	data, mime, err := m.fetch(ctx, imageURL)
	if err != nil {
		return 0, newError(KindMediaUploadFailed, StepImage, "could not fetch image", err)
	}

	body, contentType, err := buildMediaForm(data, mime, deriveFilename(imageURL, mime), title)
	if err != nil {
		return 0, newError(KindMediaUploadFailed, StepImage, "could not build upload form", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoints{base: target.BaseURL}.media(), bytes.NewReader(body))
	if err != nil {
		return 0, newError(KindMediaUploadFailed, StepImage, "could not build upload request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth.Apply(req)
	}

	res, err := m.client.do(ctx, req, m.uploadTimeout)
	if err != nil {
		return 0, newError(KindMediaUploadFailed, StepImage, "media upload request failed", err)
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		e := newError(KindMediaUploadFailed, StepImage, "site rejected media upload: "+res.snippet(), nil)
		e.StatusCode = res.StatusCode
		return 0, e
	}

	var media mediaResponse
	if err := json.Unmarshal(res.Body, &media); err != nil || media.ID <= 0 {
		return 0, newError(KindMediaUploadFailed, StepImage, "media response carried no id", err)
	}
	return media.ID, nil
}

func (m *MediaUploader) fetch(ctx context.Context, imageURL string) ([]byte, *mimetype.MIME, error) {
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}
	if u, err := url.Parse(imageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, fmt.Errorf("image reference %q is not an absolute http(s) URL", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	res, err := m.client.send(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("image source answered %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, m.maxBytes+1))
	if err != nil {
		return nil, nil, err
	}
	if int64(len(data)) > m.maxBytes {
		return nil, nil, fmt.Errorf("image exceeds %d bytes", m.maxBytes)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("image is empty")
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, nil, fmt.Errorf("content is %s, not an image", mime.String())
	}
	return data, mime, nil
}

// deriveFilename keeps the source file's base name and makes sure its
// extension matches the sniffed content type.
func deriveFilename(imageURL string, mime *mimetype.MIME) string {
	name := ""
	if u, err := url.Parse(imageURL); err == nil {
		name = path.Base(u.Path)
	}
	ext := mime.Extension()
	stem := strings.TrimSuffix(name, path.Ext(name))
	stem = strings.Trim(unsafeFilenameChars.ReplaceAllString(stem, "-"), "-.")
	if stem == "" {
		stem = "announcement-image"
	}
	if ext == "" {
		ext = path.Ext(name)
	}
	return stem + ext
}

func buildMediaForm(data []byte, mime *mimetype.MIME, filename, title string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", mime.String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("title", title); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("alt_text", title); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
