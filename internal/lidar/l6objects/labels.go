package l6objects

import "fmt"

// Label is an opaque classification tag attached to a point.
type Label int

// Known labels. Values match the on-disk label column of exported clouds.
const (
	LabelUnlabelled   Label = 0
	LabelGround       Label = 1
	LabelBuilding     Label = 2
	LabelTree         Label = 3
	LabelStreetLight  Label = 4
	LabelTrafficSign  Label = 5
	LabelTrafficLight Label = 6
	LabelCar          Label = 7
	LabelNoise        Label = 99
)

var labelNames = map[Label]string{
	LabelUnlabelled:   "Unlabelled",
	LabelGround:       "Ground",
	LabelBuilding:     "Building",
	LabelTree:         "Tree",
	LabelStreetLight:  "Street light",
	LabelTrafficSign:  "Traffic sign",
	LabelTrafficLight: "Traffic light",
	LabelCar:          "Car",
	LabelNoise:        "Noise",
}

// String returns the label name, or "Label(n)" for unknown values.
func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// Known reports whether l is one of the predefined labels.
func (l Label) Known() bool {
	_, ok := labelNames[l]
	return ok
}

// ParseLabel maps a numeric label column value back to a Label.
func ParseLabel(v int) (Label, error) {
	l := Label(v)
	if !l.Known() {
		return LabelUnlabelled, fmt.Errorf("unknown label %d", v)
	}
	return l, nil
}

// FillLabels returns a slice of n labels all set to l.
func FillLabels(n int, l Label) []Label {
	out := make([]Label, n)
	if l != LabelUnlabelled {
		for i := range out {
			out[i] = l
		}
	}
	return out
}

// CountLabels tallies how many points carry each label.
func CountLabels(ls []Label) map[Label]int {
	counts := make(map[Label]int)
	for _, l := range ls {
		counts[l]++
	}
	return counts
}
