// Package catalog holds the immutable Mode, Layout and Model presets the
// studio generates against. Entries are never mutated at runtime; rounds
// capture whatever catalog text they used at creation time.
package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Preset is a one-click example prompt shown for a Mode.
type Preset struct {
	Label  string
	Prompt string
}

// Mode is a named visual style: a system instruction injected into every
// generation call plus example prompts.
type Mode struct {
	Key               string
	Name              string
	Emoji             string
	SystemInstruction string
	Presets           []Preset
}

// Layout is a named compositional preset appended to the user's prompt.
type Layout struct {
	Key          string
	Name         string
	Emoji        string
	PromptSuffix string
}

// Model is a named backend image-generation configuration. Direct models
// take one combined prompt string; non-direct models use the multimodal
// content shape with a separate system instruction.
type Model struct {
	Key       string
	Name      string
	ShortName string
	ServiceID string
	Direct    bool
	Rank      int
}

// QualitySuffix is appended to every composed prompt before it is sent.
const QualitySuffix = "Photography Settings: f/1.8 aperture for depth of field, " +
	"ISO 100 for grain-free clarity, 85mm lens for flattering portraits. " +
	"Lighting: Studio strobe setup with rim light. Render: Unreal Engine 5, Octane Render, 8k."

const baseStyle = `Style: Professional High-CTR YouTube Thumbnail.
Visuals: Hyper-realistic 8k resolution, highly detailed skin texture, sharp focus, cinematic lighting.
Lighting: Strong key light on the face, distinct vibrant RIM LIGHT (backlight) to separate subject from background.
Colors: High saturation, high contrast.
Text: If text is specified, it is rendered in MASSIVE, BOLD, SANS-SERIF font with heavy drop shadows or outlines for maximum readability.`

var modes = map[string]Mode{
	"viral-tech": {
		Key:   "viral-tech",
		Name:  "Viral / Tech",
		Emoji: "🔥",
		SystemInstruction: baseStyle + `
Specific Aesthetic: Tech Youtuber style. Clean, crisp, digital look.
Backgrounds are usually dark blurred tech environments or gradients.`,
		Presets: []Preset{
			{Label: "🗣️ Viral Talking Head", Prompt: `A YouTuber with a shocked expression pointing at the text "GEMMA 3". Dark blue background with bokeh lights.`},
			{Label: "📱 Product Launch", Prompt: `Close up of a sleek black smartphone. Text "IT'S OVER" in massive red letters. Clean white background.`},
			{Label: "💰 Financial Success", Prompt: `A man in a suit holding a stack of cash, smiling widely. Text "10X GAINS" in bright green. Stock chart background.`},
			{Label: "⚠️ Warning", Prompt: `Person with hands on head, looking terrified. Text "DON'T BUY" in yellow warning font. Red alarm lighting.`},
		},
	},
	"tech-anime": {
		Key:   "tech-anime",
		Name:  "Tech Anime",
		Emoji: "🤖",
		SystemInstruction: baseStyle + `
Specific Aesthetic: Anime Art Style, Cel-Shaded. Vibrant Neon Colors (Cyan, Magenta, Electric Blue).
Exaggerated facial expressions, speed lines, glowing energy effects.`,
		Presets: []Preset{
			{Label: "⚡ Speed", Prompt: `Anime character running with a lightning trail. Text "FASTER?" in jagged electric font.`},
			{Label: "🖥️ Setup", Prompt: `A glowing futuristic gaming room setup. Text "DREAM DESK" in neon blue.`},
			{Label: "🤖 AI Takeover", Prompt: `A menacing robot face in half-shadow. Text "AI DANGER" in glitchy font.`},
		},
	},
	"cinematic": {
		Key:   "cinematic",
		Name:  "Cinematic / Vlog",
		Emoji: "🎬",
		SystemInstruction: baseStyle + `
Specific Aesthetic: Movie Poster, Travel Vlog, Documentary.
Color Grading: Teal & Orange, moody shadows, sun flares. Texture: Film grain, realistic depth of field.`,
		Presets: []Preset{
			{Label: "🏔️ Adventure", Prompt: `Back of a hiker looking at a massive epic mountain. Text "I SURVIVED" in bold white serif.`},
			{Label: "🌆 City Night", Prompt: `Blurry city lights bokeh at night. Subject looking melancholic. Text "GOODBYE" in elegant font.`},
			{Label: "🍔 Food Review", Prompt: `Extreme close up macro shot of a juicy burger. Text "BEST EVER" in bold yellow.`},
		},
	},
	"gaming-3d": {
		Key:   "gaming-3d",
		Name:  "Gaming / 3D",
		Emoji: "🎮",
		SystemInstruction: baseStyle + `
Specific Aesthetic: 3D Render, stylized game art. Textures: Glossy, plastic, clay-like, or low-poly.
Lighting: Bright, soft studio lighting, primary colors (Red, Blue, Yellow).`,
		Presets: []Preset{
			{Label: "🏆 Win", Prompt: `A 3D character holding a giant gold trophy. Text "VICTORY!" in gold 3D font. Confetti everywhere.`},
			{Label: "👻 Horror", Prompt: `A scary monster face close up. Text "TOO SCARY" in dripping red slime font. Dark purple background.`},
			{Label: "🎮 Let's Play", Prompt: `A gamer character with mouth open in excitement, holding a controller. Text "EPIC MOMENT".`},
		},
	},
	"minimal": {
		Key:   "minimal",
		Name:  "Minimal / Clean",
		Emoji: "✨",
		SystemInstruction: baseStyle + `
Specific Aesthetic: Product Ad, Design Portfolio, Minimalist.
Composition: Lots of negative space, solid flat colors, soft shadows. Subject: Isolated object or person.`,
		Presets: []Preset{
			{Label: "📦 Unboxing", Prompt: `A pristine white box on a white table. Text "WHAT IS IT?" in thin black font.`},
			{Label: "🤔 Question", Prompt: `A single giant question mark object. Pastel blue background. Text "WHY?".`},
			{Label: "🛠️ Tool", Prompt: `A single screwdriver floating in the air. Matte grey background. Text "FIX IT".`},
		},
	},
}

// ModeOrder is the frontpage display order.
var ModeOrder = []string{"viral-tech", "tech-anime", "cinematic", "gaming-3d", "minimal"}

var layouts = map[string]Layout{
	"subject-right": {
		Key: "subject-right", Name: "Subject Right / Text Left", Emoji: "👉",
		PromptSuffix: "The composition is split: the expressive subject is positioned on the RIGHT side of the frame, while massive, bold text fills the negative space on the LEFT side.",
	},
	"subject-left": {
		Key: "subject-left", Name: "Subject Left / Text Right", Emoji: "👈",
		PromptSuffix: "The composition is split: the expressive subject is positioned on the LEFT side of the frame, while massive, bold text fills the negative space on the RIGHT side.",
	},
	"split": {
		Key: "split", Name: "Split Screen Comparison", Emoji: "🌗",
		PromptSuffix: "A vertical split-screen composition. Side A is on the left, Side B is on the right, separated by a distinct line or lightning bolt effect. Text is centered or in corners.",
	},
	"center": {
		Key: "center", Name: "Centered Subject", Emoji: "🎯",
		PromptSuffix: "The subject is perfectly centered in the frame, facing the camera directly. Text is placed symmetrically above or below the subject.",
	},
	"minimal": {
		Key: "minimal", Name: "Object Focus", Emoji: "🔍",
		PromptSuffix: "Macro photography focus on a single object in the center. The background is a solid, flat matte color. Text is minimal and clean.",
	},
}

// LayoutOrder is the display order for layouts.
var LayoutOrder = []string{"subject-right", "subject-left", "split", "center", "minimal"}

var models = map[string]Model{
	"imagen": {
		Key:       "imagen",
		Name:      "Imagen 4",
		ShortName: "Imagen",
		ServiceID: "imagen-4.0-generate-001",
		Direct:    true,
		Rank:      1,
	},
	"flash-image": {
		Key:       "flash-image",
		Name:      "Flash Image",
		ShortName: "Flash",
		ServiceID: "gemini-2.5-flash-image",
		Direct:    false,
		Rank:      2,
	},
}

// ModelOrder lists model keys by display rank.
var ModelOrder = []string{"imagen", "flash-image"}

// ModeByKey looks up a Mode.
func ModeByKey(key string) (Mode, bool) {
	m, ok := modes[key]
	return m, ok
}

// LayoutByKey looks up a Layout.
func LayoutByKey(key string) (Layout, bool) {
	l, ok := layouts[key]
	return l, ok
}

// ModelByKey looks up a Model.
func ModelByKey(key string) (Model, bool) {
	m, ok := models[key]
	return m, ok
}

// ModelRank returns the display rank for a model key; unknown keys sort last.
func ModelRank(key string) int {
	if m, ok := models[key]; ok {
		return m.Rank
	}
	return 1 << 20
}

// DefaultMode, DefaultLayout and DefaultModel are the initial selections.
func DefaultMode() string   { return ModeOrder[0] }
func DefaultLayout() string { return LayoutOrder[0] }
func DefaultModel() string  { return ModelOrder[0] }

// MatchMode resolves loosely-typed user input ("cinematc", "Viral") to a
// mode key. Exact key wins; otherwise the closest key or display name
// within a small edit distance.
func MatchMode(input string) (string, bool) {
	return closest(input, ModeOrder, func(k string) string { return modes[k].Name })
}

// MatchLayout is MatchMode for layout keys.
func MatchLayout(input string) (string, bool) {
	return closest(input, LayoutOrder, func(k string) string { return layouts[k].Name })
}

func closest(input string, keys []string, name func(string) string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return "", false
	}
	best, bestDist := "", 3 // tolerate up to 2 edits
	for _, k := range keys {
		if k == needle {
			return k, true
		}
		for _, cand := range []string{k, strings.ToLower(name(k))} {
			if strings.HasPrefix(cand, needle) {
				return k, true
			}
			if d := levenshtein.ComputeDistance(needle, cand); d < bestDist {
				best, bestDist = k, d
			}
		}
	}
	return best, best != ""
}
