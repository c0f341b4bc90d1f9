package layout

import (
	"fmt"

	"github.com/ByLCY/foodlabels/label"
)

// Scale 是某个密度档位下的四级字号（pt）。
type Scale struct {
	Title    float64 `json:"title"`
	Subtitle float64 `json:"subtitle"`
	Body     float64 `json:"body"`
	Small    float64 `json:"small"`
}

// scales 是静态字号表：档位内 title > subtitle > body > small，档位间 normal > small > smallest。
var scales = map[label.Density]Scale{
	label.DensityNormal:   {Title: 11, Subtitle: 9, Body: 8, Small: 7},
	label.DensitySmall:    {Title: 10, Subtitle: 8, Body: 7, Small: 6},
	label.DensitySmallest: {Title: 9, Subtitle: 7, Body: 6, Small: 5},
}

// ScaleFor 查表返回密度对应的字号。空值视为 normal；表外的值属于调用方错误。
func ScaleFor(d label.Density) (Scale, error) {
	s, ok := scales[d.Resolve()]
	if !ok {
		return Scale{}, fmt.Errorf("layout: %w: %q", label.ErrInvalidDensity, d)
	}
	return s, nil
}

// Sizes returns the four sizes from largest to smallest.
func (s Scale) Sizes() [4]float64 {
	return [4]float64{s.Title, s.Subtitle, s.Body, s.Small}
}
