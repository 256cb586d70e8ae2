package domain

// StrikeNotice is one member that received an automated strike.
type StrikeNotice struct {
	Tag      string
	Name     string
	Actual   float64
	Required float64
	Strikes  int
}

// StrikeChange is the result of a manual strike update.
type StrikeChange struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}
