package layer

// Style is the visual state of a rendered shape.
type Style int

const (
	StyleDefault Style = iota
	StyleHighlighted
	StyleEdit
)

// StyleRecord is a fully specified set of path options.
type StyleRecord struct {
	FillOpacity float64 `json:"fillOpacity"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	DashArray   string  `json:"dashArray,omitempty"`
}

var styleRecords = [...]StyleRecord{
	StyleDefault:     {FillOpacity: 0.25, Weight: 2, Opacity: 0.8},
	StyleHighlighted: {FillOpacity: 0.35, Weight: 4, Opacity: 1, DashArray: "5, 5"},
	StyleEdit:        {FillOpacity: 0.4, Weight: 3, Opacity: 1},
}

// Record returns the path options for the style.
func (s Style) Record() StyleRecord {
	if s < StyleDefault || s > StyleEdit {
		return styleRecords[StyleDefault]
	}
	return styleRecords[s]
}

func (s Style) String() string {
	switch s {
	case StyleDefault:
		return "default"
	case StyleHighlighted:
		return "highlighted"
	case StyleEdit:
		return "edit"
	default:
		return "unknown"
	}
}
