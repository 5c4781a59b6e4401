package orchestrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultImageMime = "image/png"
	imagePlaceholder = "[image]"

	// maxImageBytes bounds a single fetched remote image.
	maxImageBytes = 20 << 20
)

var dataURIPattern = regexp.MustCompile(`(?s)^data:(image/[^;]+);base64,(.+)$`)

// image is an inline image ready for upload.
type image struct {
	MimeType string
	Data     string // base64
}

// fetcher downloads remote images referenced by the last message.
type fetcher struct {
	client      *http.Client
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// collect returns the images of msg in part order. Data URIs are used
// as-is; http(s) URLs are fetched concurrently. Anything that cannot be
// turned into an image is logged and skipped.
func (f *fetcher) collect(ctx context.Context, msg Message) []image {
	slots := make([]*image, 0, len(msg.Content))
	type pending struct {
		slot int
		url  string
	}
	var remote []pending

	for _, p := range msg.Content {
		if p.Type != PartImage {
			continue
		}
		url := p.ImageURL
		switch {
		case strings.HasPrefix(url, "data:"):
			m := dataURIPattern.FindStringSubmatch(url)
			if m == nil {
				f.logger.WarnContext(ctx, "unsupported data uri, skipping image", "prefix", preview(url))
				continue
			}
			slots = append(slots, &image{MimeType: m[1], Data: m[2]})
		case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
			remote = append(remote, pending{slot: len(slots), url: url})
			slots = append(slots, nil)
		default:
			f.logger.WarnContext(ctx, "unsupported image url, skipping image", "prefix", preview(url))
		}
	}

	if len(remote) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.concurrency)
		for _, r := range remote {
			g.Go(func() error {
				img, err := f.fetch(gctx, r.url)
				if err != nil {
					f.logger.WarnContext(ctx, "failed to fetch image, skipping", "url", r.url, "error", err)
					return nil
				}
				slots[r.slot] = img
				return nil
			})
		}
		_ = g.Wait()
	}

	images := make([]image, 0, len(slots))
	for _, img := range slots {
		if img != nil {
			images = append(images, *img)
		}
	}
	return images
}

func (f *fetcher) fetch(ctx context.Context, url string) (*image, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return &image{
		MimeType: contentType(resp.Header.Get("Content-Type")),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func contentType(header string) string {
	if header == "" {
		return defaultImageMime
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || mediaType == "" {
		return defaultImageMime
	}
	return mediaType
}

// Transcript renders the whole conversation as plain text. The backend
// gets no history of its own, so every turn carries the full transcript.
func Transcript(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		role := "Assistant"
		if m.Role == "user" || m.Role == "system" {
			role = "User"
		}
		b.WriteString(role)
		b.WriteString(": ")
		for _, p := range m.Content {
			switch p.Type {
			case PartText:
				b.WriteString(p.Text)
			case PartImage:
				b.WriteString(imagePlaceholder)
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func preview(s string) string {
	if len(s) > 30 {
		return s[:30] + "..."
	}
	return s
}
