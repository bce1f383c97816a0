package consistency

// DefaultThreshold is the CIEDE2000 distance at or below which two regions
// are treated as visually indistinguishable.
const DefaultThreshold = 2.0

// Status labels.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusMixed = "MIXED"
)

const (
	messagePass  = "All 4 Match"
	messageFail  = "All Different"
	mixedPrefix  = "Similar: "
	groupSep     = ", "
	memberJoiner = "+"
)
