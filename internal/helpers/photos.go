package helpers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const PhotoFolder = "profiles"

// PhotoUploader re-hosts profile photos on Cloudinary. With no Cloudinary
// client configured, URLs are stored as given.
type PhotoUploader struct {
	cld *cloudinary.Cloudinary
}

func NewPhotoUploader(cld *cloudinary.Cloudinary) *PhotoUploader {
	return &PhotoUploader{cld: cld}
}

func ValidatePhotoURL(raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("invalid photo url")
	}
	return nil
}

func (p *PhotoUploader) Upload(ctx context.Context, userID, source string) (string, error) {
	if err := ValidatePhotoURL(source); err != nil {
		return "", err
	}
	if p == nil || p.cld == nil {
		return source, nil
	}

	res, err := p.cld.Upload.Upload(ctx, source, uploader.UploadParams{
		Folder: PhotoFolder + "/" + userID,
		Tags:   []string{"rendez", "profile"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %v", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload photo: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// Delete removes a photo previously uploaded to Cloudinary. URLs that were not
// re-hosted are ignored.
func (p *PhotoUploader) Delete(ctx context.Context, photoURL string) error {
	if p == nil || p.cld == nil {
		return nil
	}
	publicID := PublicIDFromURL(photoURL)
	if publicID == "" {
		return nil
	}
	if _, err := p.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete photo: %v", err)
	}
	return nil
}

// PublicIDFromURL extracts the Cloudinary public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v123/profiles/u1/abc.jpg.
func PublicIDFromURL(photoURL string) string {
	u, err := url.Parse(photoURL)
	if err != nil || !strings.HasSuffix(u.Host, "cloudinary.com") {
		return ""
	}
	_, rest, ok := strings.Cut(u.Path, "/upload/")
	if !ok {
		return ""
	}
	segments := strings.Split(rest, "/")
	if len(segments) > 1 && strings.HasPrefix(segments[0], "v") && isDigits(segments[0][1:]) {
		segments = segments[1:]
	}
	id := strings.Join(segments, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
