package valueobjects

import "fmt"

// Level identifies one tier of the code hierarchy.
type Level string

const (
	LevelMajor Level = "major"
	LevelMid   Level = "mid"
	LevelSub   Level = "sub"
)

// Levels lists the tiers from the root down.
var Levels = []Level{LevelMajor, LevelMid, LevelSub}

// ParseLevel validates s as a Level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelMajor, LevelMid, LevelSub:
		return l, nil
	default:
		return "", fmt.Errorf("unknown category level %q", s)
	}
}

func (l Level) String() string { return string(l) }

// Label is the display name used in user facing messages.
func (l Level) Label() string {
	switch l {
	case LevelMajor:
		return "大分類"
	case LevelMid:
		return "中分類"
	case LevelSub:
		return "細分類"
	default:
		return string(l)
	}
}

// KeyField is the JSON name of the level's natural key.
func (l Level) KeyField() string {
	switch l {
	case LevelMajor:
		return "majorCatNo"
	case LevelMid:
		return "midCatCode"
	default:
		return "subcatCode"
	}
}

// IDField is the JSON name of the level's surrogate id.
func (l Level) IDField() string {
	switch l {
	case LevelMajor:
		return "majorCatId"
	case LevelMid:
		return "midCatId"
	default:
		return "id"
	}
}
