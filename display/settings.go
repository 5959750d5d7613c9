package display

import "math"

const (
	MinGamma      = 0.1
	MaxGamma      = 5.0
	MinBrightness = 1
	MaxBrightness = 100
)

// Settings are the user-tunable display parameters.
type Settings struct {
	Gamma      float64 `json:"gamma"`
	Brightness int     `json:"brightness"`
}

// SettingsUpdate is a partial change to Settings. Nil fields are left
// alone.
type SettingsUpdate struct {
	Gamma      *float64
	Brightness *int
}

func ClampGamma(g float64) float64 {
	switch {
	case math.IsNaN(g), g < MinGamma:
		return MinGamma
	case g > MaxGamma:
		return MaxGamma
	}
	return g
}

func ClampBrightness(b int) int {
	switch {
	case b < MinBrightness:
		return MinBrightness
	case b > MaxBrightness:
		return MaxBrightness
	}
	return b
}

// Clamped returns s with both fields forced into range.
func (s Settings) Clamped() Settings {
	return Settings{
		Gamma:      ClampGamma(s.Gamma),
		Brightness: ClampBrightness(s.Brightness),
	}
}
