package images

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ResolutionType is the common name of an image size used by benchmark scenarios.
type ResolutionType string

// Named sizes for synthetic benchmark inputs.
const (
	ResolutionTypeThumb    ResolutionType = "thumb"
	ResolutionTypeQVGA     ResolutionType = "QVGA"
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
)

// ErrInvalidResolution is returned by ParseResolution for malformed input.
var ErrInvalidResolution = errors.New("invalid resolution")

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution is a named image size.
type Resolution struct {
	Name   ResolutionType   `json:"name"   yaml:"name"`
	Pixels ResolutionPixels `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels calculates the megapixel value rounded to two decimal places
// (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeThumb:    {Name: ResolutionTypeThumb, Pixels: ResolutionPixels{Width: 128, Height: 96}},
	ResolutionTypeQVGA:     {Name: ResolutionTypeQVGA, Pixels: ResolutionPixels{Width: 320, Height: 240}},
	ResolutionTypeVGA:      {Name: ResolutionTypeVGA, Pixels: ResolutionPixels{Width: 640, Height: 480}},
	ResolutionTypeHD720p:   {Name: ResolutionTypeHD720p, Pixels: ResolutionPixels{Width: 1280, Height: 720}},
	ResolutionTypeFHD1080p: {Name: ResolutionTypeFHD1080p, Pixels: ResolutionPixels{Width: 1920, Height: 1080}},
	ResolutionTypeQHD1440p: {Name: ResolutionTypeQHD1440p, Pixels: ResolutionPixels{Width: 2560, Height: 1440}},
	ResolutionType4KUHD:    {Name: ResolutionType4KUHD, Pixels: ResolutionPixels{Width: 3840, Height: 2160}},
}

// GetAllResolutions returns every named resolution, smallest first.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Pixels.Width*all[i].Pixels.Height < all[j].Pixels.Width*all[j].Pixels.Height
	})
	return all
}

// GetResolutionByType retrieves a specific resolution by its type.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// ParseResolution accepts either a resolution name ("VGA") or explicit
// dimensions ("800x600").
//
// Arguments:
//   - s: The text to parse.
//
// Returns:
//   - Resolution: The named or ad-hoc resolution.
//   - error: ErrInvalidResolution when s is neither.
func ParseResolution(s string) (Resolution, error) {
	if res, ok := resolutions[ResolutionType(s)]; ok {
		return res, nil
	}

	w, h, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return Resolution{}, errors.Wrapf(ErrInvalidResolution, "%q", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return Resolution{}, errors.Wrapf(ErrInvalidResolution, "%q", s)
	}

	return Resolution{
		Name:   ResolutionType(fmt.Sprintf("%dx%d", width, height)),
		Pixels: ResolutionPixels{Width: width, Height: height},
	}, nil
}
