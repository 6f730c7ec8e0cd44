package genclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"thumbcast/internal/catalog"
	"thumbcast/internal/domain"
)

const thumbnailAspectRatio = "16:9"

// GeminiProvider implements Provider against the Gemini API. Direct models
// go through image synthesis; the rest through multimodal content
// generation constrained to image output.
type GeminiProvider struct {
	client        *genai.Client
	metadataModel string
}

// NewGeminiProvider dials the Gemini API.
func NewGeminiProvider(ctx context.Context, apiKey, metadataModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if metadataModel == "" {
		metadataModel = "gemini-2.5-flash"
	}
	return &GeminiProvider{client: client, metadataModel: metadataModel}, nil
}

func (g *GeminiProvider) GenerateImage(ctx context.Context, req Request) (string, error) {
	if req.Direct {
		return g.generateDirect(ctx, req)
	}
	return g.generateMultimodal(ctx, req)
}

// generateDirect sends one combined prompt; direct models have no separate
// system-instruction channel.
func (g *GeminiProvider) generateDirect(ctx context.Context, req Request) (string, error) {
	combined := fmt.Sprintf("%s\n\nIMAGE DESCRIPTION:\n%s\n\n%s",
		req.SystemInstruction, req.Prompt, catalog.QualitySuffix)

	resp, err := g.client.Models.GenerateImages(ctx, req.Model, combined, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    thumbnailAspectRatio,
		OutputMIMEType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("generate images: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", ErrNoImageData
	}
	return "data:image/jpeg;base64," +
		base64.StdEncoding.EncodeToString(resp.GeneratedImages[0].Image.ImageBytes), nil
}

func (g *GeminiProvider) generateMultimodal(ctx context.Context, req Request) (string, error) {
	var parts []*genai.Part
	if req.InputImage != "" {
		data, mime, err := decodeDataURI(req.InputImage)
		if err != nil {
			return "", fmt.Errorf("reference image: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt+"\n\n"+catalog.QualitySuffix))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction:  genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		ResponseModalities: []string{"IMAGE"},
		SafetySettings:     permissiveSafety(),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoImageData
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," +
				base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", ErrNoImageData
}

func (g *GeminiProvider) GenerateMetadata(ctx context.Context, prompt string) (domain.SeoMetadata, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
				"tags":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
		},
	}
	ask := "Generate YouTube SEO metadata (Title, Description, 5 Tags) for a video based on this " +
		"thumbnail description: " + prompt + ". Make it clickbaity and high CTR."

	resp, err := g.client.Models.GenerateContent(ctx, g.metadataModel, genai.Text(ask), cfg)
	if err != nil {
		return domain.SeoMetadata{}, fmt.Errorf("generate metadata: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return domain.SeoMetadata{}, fmt.Errorf("generate metadata: empty response")
	}
	var md domain.SeoMetadata
	if err := json.Unmarshal([]byte(text), &md); err != nil {
		return domain.SeoMetadata{}, fmt.Errorf("parse metadata: %w", err)
	}
	return md, nil
}

func permissiveSafety() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
	}
	out := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		out = append(out, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return out
}

// decodeDataURI splits "data:<mime>;base64,<payload>" into bytes and mime.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	mime := strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return data, mime, nil
}
