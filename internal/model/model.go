package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

// Font size bounds accepted by the layout editor.
const (
	MinFontSize = 10
	MaxFontSize = 100
)

// Overlay size bounds accepted by the layout editor.
const (
	MinOverlaySize = 50
	MaxOverlaySize = 400
)

var ErrInvalidConfig = errors.New("invalid render config")

// Field identifies one of the three text fields drawn onto a certificate.
type Field string

const (
	FieldName  Field = "name"
	FieldTopic Field = "topic"
	FieldDate  Field = "date"
)

// DrawOrder is the fixed order in which text fields are drawn.
var DrawOrder = []Field{FieldName, FieldTopic, FieldDate}

// Fields holds one value per text field.
type Fields[T any] struct {
	Name  T `json:"name"`
	Topic T `json:"topic"`
	Date  T `json:"date"`
}

// Get returns the value for f. Unknown fields yield the zero value.
func (fs Fields[T]) Get(f Field) T {
	switch f {
	case FieldName:
		return fs.Name
	case FieldTopic:
		return fs.Topic
	case FieldDate:
		return fs.Date
	}
	var zero T
	return zero
}

// All returns a Fields with the same value for every field.
func All[T any](v T) Fields[T] {
	return Fields[T]{Name: v, Topic: v, Date: v}
}

// Point is a pixel position on the template. It serializes as [x, y].
type Point struct {
	X int
	Y int
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []int
	if err := json.Unmarshal(data, &xy); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("point: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Style holds the text style flags. It serializes as [bold, italic, underline].
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
}

func (s Style) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]bool{s.Bold, s.Italic, s.Underline})
}

func (s *Style) UnmarshalJSON(data []byte) error {
	var flags []bool
	if err := json.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	if len(flags) != 3 {
		return fmt.Errorf("style: want 3 flags, got %d", len(flags))
	}
	s.Bold, s.Italic, s.Underline = flags[0], flags[1], flags[2]
	return nil
}

// RGB is an opaque text colour. It serializes as "#rrggbb".
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseRGB parses "#rgb" or "#rrggbb" (the leading '#' is optional).
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("colour: %w", err)
	}
	parsed, err := ParseRGB(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RenderConfig is the layout of one certificate design. Its JSON form is
// the persisted settings record.
type RenderConfig struct {
	Positions Fields[Point] `json:"positions"`
	FontSizes Fields[int]   `json:"font_sizes"`
	FontColor RGB           `json:"font_color"`
	Styles    Fields[Style] `json:"styles"`
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Positions: Fields[Point]{
			Name:  Point{X: 475, Y: 435},
			Topic: Point{X: 290, Y: 510},
			Date:  Point{X: 460, Y: 585},
		},
		FontSizes: All(32),
		FontColor: RGB{},
		Styles:    All(Style{}),
	}
}

// Validate checks the config against a template of the given size.
func (c RenderConfig) Validate(width, height int) error {
	for _, f := range DrawOrder {
		p := c.Positions.Get(f)
		if p.X < 0 || p.X > width || p.Y < 0 || p.Y > height {
			return fmt.Errorf("%w: %s position (%d,%d) outside %dx%d template",
				ErrInvalidConfig, f, p.X, p.Y, width, height)
		}
		size := c.FontSizes.Get(f)
		if size < MinFontSize || size > MaxFontSize {
			return fmt.Errorf("%w: %s font size %d outside [%d,%d]",
				ErrInvalidConfig, f, size, MinFontSize, MaxFontSize)
		}
	}
	return nil
}

type OverlayKind string

const (
	OverlayLogo      OverlayKind = "logo"
	OverlaySignature OverlayKind = "signature"
)

// OverlayAsset is a logo or signature pasted onto the certificate as a
// Size x Size square at Position. A nil Image is skipped.
type OverlayAsset struct {
	Kind     OverlayKind
	Image    image.Image
	Position Point
	Size     int
}

// OverlaySlot describes one of the upload slots offered by the service
// together with its default placement.
type OverlaySlot struct {
	Key      string
	Kind     OverlayKind
	Position Point
	Size     int
}

var OverlaySlots = []OverlaySlot{
	{Key: "logo1", Kind: OverlayLogo, Position: Point{X: 50, Y: 50}, Size: 100},
	{Key: "logo2", Kind: OverlayLogo, Position: Point{X: 900, Y: 50}, Size: 100},
	{Key: "sign1", Kind: OverlaySignature, Position: Point{X: 500, Y: 500}, Size: 150},
	{Key: "sign2", Kind: OverlaySignature, Position: Point{X: 700, Y: 500}, Size: 150},
}

// CertificateRequest carries the free text drawn onto one certificate.
type CertificateRequest struct {
	Name  string `json:"name"`
	Topic string `json:"topic"`
	Date  string `json:"date"`
}

// Text returns the request's value for f.
func (r CertificateRequest) Text(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldTopic:
		return r.Topic
	case FieldDate:
		return r.Date
	}
	return ""
}

// Artifact is one generated certificate. PDF is nil when PDF output is off.
type Artifact struct {
	Stem  string
	Image []byte
	PDF   []byte
}

func (a *Artifact) ImageName() string { return a.Stem + ".jpg" }
func (a *Artifact) PDFName() string   { return a.Stem + ".pdf" }

// Job states.
const (
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

// Job is the record of one bulk generation run.
type Job struct {
	ID          string
	Template    string
	State       string
	IncludePDF  bool
	Processed   int
	Failed      int
	ArchivePath string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
