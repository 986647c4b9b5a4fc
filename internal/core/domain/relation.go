package domain

// RelationConfig describes one named spatial relation and its defaults.
// Entries are treated as read-only once registered.
type RelationConfig struct {
	Name               string       `json:"name"`
	Category           Category     `json:"category"`
	Description        string       `json:"description"`
	DefaultDistanceM   *float64     `json:"default_distance_m,omitempty"`
	BufferFrom         BufferOrigin `json:"buffer_from,omitempty"`
	RingOnly           bool         `json:"ring_only"`
	SectorAngleDegrees *float64     `json:"sector_angle_degrees,omitempty"`
	Direction          string       `json:"direction,omitempty"`
	AppliesTo          []string     `json:"applies_to,omitempty"`
}

// Float returns a pointer to v. Handy for optional numeric fields.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
