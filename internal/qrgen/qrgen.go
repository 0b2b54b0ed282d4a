// Package qrgen wraps the external QR symbol encoder behind a small adapter.
// It is a pure computation layer: validate inputs, render image bytes, no
// side effects.
package qrgen

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
)

// Validation bounds, declared as data so the HTTP layer and the core share
// one source of truth.
const (
	MinTextLength = 1
	MaxTextLength = 2000
	MinSize       = 200
	MaxSize       = 2000

	DefaultSize            = 300
	DefaultColor           = "#000000"
	DefaultBackgroundColor = "#ffffff"
	DefaultFormat          = FormatPNG
)

// Supported output formats.
const (
	FormatPNG     = "png"
	FormatSVG     = "svg"
	FormatDataURL = "dataURL"
)

// hexColorPattern matches 6-hex-digit RGB strings like #1A2B3C, case-insensitive.
var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Options holds the rendering parameters for a single QR code.
type Options struct {
	Size                 int
	Color                string
	BackgroundColor      string
	Format               string
	ErrorCorrectionLevel string
}

// ApplyDefaults fills zero-valued fields with the generation defaults.
// The error correction level is left empty on purpose: the orchestrator
// resolves it from the text length when the caller didn't choose one.
func (o *Options) ApplyDefaults() {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.BackgroundColor == "" {
		o.BackgroundColor = DefaultBackgroundColor
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
}

// Validate checks text and options against the bounds table and returns the
// complete list of violations. An empty list means the input is renderable.
func Validate(text string, opts Options) []apperrors.FieldError {
	var errs []apperrors.FieldError

	if strings.TrimSpace(text) == "" {
		errs = append(errs, apperrors.FieldError{Field: "text", Message: "text cannot be empty"})
	}
	if len(text) > MaxTextLength {
		errs = append(errs, apperrors.FieldError{Field: "text", Message: fmt.Sprintf("text cannot exceed %d characters", MaxTextLength)})
	}
	if opts.Size < MinSize || opts.Size > MaxSize {
		errs = append(errs, apperrors.FieldError{Field: "size", Message: fmt.Sprintf("size must be between %d and %d pixels", MinSize, MaxSize)})
	}
	if !hexColorPattern.MatchString(opts.Color) {
		errs = append(errs, apperrors.FieldError{Field: "color", Message: "color must be a hex code like #000000"})
	}
	if !hexColorPattern.MatchString(opts.BackgroundColor) {
		errs = append(errs, apperrors.FieldError{Field: "background_color", Message: "background color must be a hex code like #FFFFFF"})
	}
	switch opts.Format {
	case FormatPNG, FormatSVG, FormatDataURL:
	default:
		errs = append(errs, apperrors.FieldError{Field: "format", Message: "format must be one of png, svg, dataURL"})
	}
	switch opts.ErrorCorrectionLevel {
	case "L", "M", "Q", "H":
	default:
		errs = append(errs, apperrors.FieldError{Field: "error_correction_level", Message: "error correction level must be one of L, M, Q, H"})
	}

	return errs
}

// RecommendErrorCorrection picks a redundancy level from the text length.
// Shorter payloads can afford denser redundancy without exceeding symbol
// capacity: <50 chars gets H (30% recovery), <200 Q (25%), <500 M (15%),
// anything longer L (7%).
func RecommendErrorCorrection(text string) string {
	length := len(text)
	switch {
	case length < 50:
		return "H"
	case length < 200:
		return "Q"
	case length < 500:
		return "M"
	default:
		return "L"
	}
}

// Generate renders text into the requested image representation: a base64
// PNG data URL for the png and dataURL formats, or an SVG document for svg.
// Inputs must already satisfy Validate; a *ValidationError is returned
// otherwise. Encoder failures (text too dense for the chosen level) surface
// as *EncodingError.
func Generate(text string, opts Options) (string, error) {
	if errs := Validate(text, opts); len(errs) > 0 {
		return "", &apperrors.ValidationError{Fields: errs}
	}

	q, err := qrcode.New(text, recoveryLevel(opts.ErrorCorrectionLevel))
	if err != nil {
		return "", &apperrors.EncodingError{Reason: err.Error()}
	}

	// Colors were validated above, parsing cannot fail here
	q.ForegroundColor = parseHexColor(opts.Color)
	q.BackgroundColor = parseHexColor(opts.BackgroundColor)

	switch opts.Format {
	case FormatSVG:
		return renderSVG(q, opts), nil
	default: // png and dataURL both produce a base64 PNG data URL
		png, err := q.PNG(opts.Size)
		if err != nil {
			return "", &apperrors.EncodingError{Reason: err.Error()}
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
	}
}

// recoveryLevel maps the L/M/Q/H letters onto the encoder's recovery tiers.
func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch level {
	case "L":
		return qrcode.Low
	case "M":
		return qrcode.Medium
	case "Q":
		return qrcode.High
	default:
		return qrcode.Highest
	}
}

// parseHexColor converts a validated #RRGGBB string into a color.RGBA.
func parseHexColor(s string) color.RGBA {
	var r, g, b uint8
	fmt.Sscanf(strings.ToLower(s), "#%02x%02x%02x", &r, &g, &b)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// renderSVG builds an SVG document from the encoder's module bitmap.
// The encoder only emits raster output, so we draw one rect per dark module
// over a solid background and let the viewBox scale to the requested size.
func renderSVG(q *qrcode.QRCode, opts Options) string {
	bitmap := q.Bitmap()
	modules := len(bitmap)

	var sb strings.Builder
	fmt.Fprintf(&sb,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`,
		opts.Size, opts.Size, modules, modules)
	fmt.Fprintf(&sb, `<rect width="%d" height="%d" fill="%s"/>`, modules, modules, opts.BackgroundColor)
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="1" height="1" fill="%s"/>`, x, y, opts.Color)
			}
		}
	}
	sb.WriteString("</svg>")
	return sb.String()
}
