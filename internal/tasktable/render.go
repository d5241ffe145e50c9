package tasktable

import "github.com/tgienger/taskdesk/internal/models"

// Indicator is the visual variant of a status badge
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorError
	IndicatorPrimary
	IndicatorSecondary
)

// StatusIndicator maps a status label to its badge. Unrecognized labels get
// no badge at all.
func StatusIndicator(label string) Indicator {
	switch label {
	case "Not started":
		return IndicatorError
	case "On going":
		return IndicatorPrimary
	case "Done":
		return IndicatorSecondary
	}
	return IndicatorNone
}

// Avatar returns the image of the profile belonging to userID. ok is false
// when there is no such profile or it has no image, and a placeholder should
// be shown instead.
func Avatar(profiles []models.Profile, userID int64) (img string, ok bool) {
	for _, p := range profiles {
		if p.UserProfile != userID {
			continue
		}
		if p.Img == nil {
			return "", false
		}
		return *p.Img, true
	}
	return "", false
}
