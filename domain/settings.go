package domain

// Settings represents user configurable report defaults.
type Settings struct {
	DefaultWindowDays int  `json:"defaultWindowDays"`
	IncludeUngrouped  bool `json:"includeUngrouped"`
}
