package roles

// Role is a lane assignment. The five canonical roles are final; Bot and
// Unknown are placeholders that only exist while a team is being resolved.
type Role string

const (
	Top     Role = "Top"
	Jungle  Role = "Jungle"
	Mid     Role = "Mid"
	ADC     Role = "ADC"
	Support Role = "Support"

	// Bot means "one of the two bottom lane roles, not yet disambiguated"
	Bot Role = "Bot"
	// Unknown means there was no usable signal at all
	Unknown Role = "Unknown"
)

// CanonicalRoles lists the five final roles. The order is also the order in
// which the fallback closer fills missing roles.
var CanonicalRoles = []Role{Top, Jungle, Mid, ADC, Support}

// IsCanonical reports whether r is one of the five final roles
func (r Role) IsCanonical() bool {
	switch r {
	case Top, Jungle, Mid, ADC, Support:
		return true
	}
	return false
}

// IsPlaceholder reports whether r still needs resolving
func (r Role) IsPlaceholder() bool {
	return r == Bot || r == Unknown
}

func (r Role) String() string {
	return string(r)
}

// Provider lane tags (match-v5 "lane")
const (
	LaneTop    = "TOP"
	LaneJungle = "JUNGLE"
	LaneMiddle = "MIDDLE"
	LaneBottom = "BOTTOM"
)

// Provider role tags (match-v5 "role")
const (
	RoleDuoCarry   = "DUO_CARRY"
	RoleDuoSupport = "DUO_SUPPORT"
	RoleSolo       = "SOLO"
	RoleNone       = "NONE"
)
