package genclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"thumbcast/internal/domain"
)

// OfflineProvider generates flat-color placeholder thumbnails locally so
// the app stays usable without an API key. The color is derived from the
// prompt so distinct rounds remain visually tellable apart.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (o *OfflineProvider) GenerateImage(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := fnv.New32a()
	h.Write([]byte(req.Prompt))
	h.Write([]byte(req.Model))
	sum := h.Sum32()

	c := color.NRGBA{
		R: uint8(sum >> 16),
		G: uint8(sum >> 8),
		B: uint8(sum),
		A: 0xff,
	}
	const w, ht = 64, 36 // 16:9
	img := image.NewNRGBA(image.Rect(0, 0, w, ht))
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// GenerateMetadata derives a title from the prompt and tags from its
// significant words. Crude, but deterministic and offline.
func (o *OfflineProvider) GenerateMetadata(ctx context.Context, prompt string) (domain.SeoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.SeoMetadata{}, err
	}
	title := strings.TrimSpace(prompt)
	if len(title) > 60 {
		title = strings.TrimSpace(title[:60])
	}
	if title == "" {
		title = "Untitled Thumbnail"
	}

	tags := make([]string, 0, 5)
	for _, word := range strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) < 4 {
			continue
		}
		tags = append(tags, word)
		if len(tags) == 5 {
			break
		}
	}

	return domain.SeoMetadata{
		Title:       title,
		Description: "Thumbnail concept: " + strings.TrimSpace(prompt),
		Tags:        tags,
	}, nil
}
