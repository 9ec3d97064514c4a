package availability

// Candidate start times offered when the requested slot is taken
var SuggestionSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00"}

// MaxSuggestions caps the number of alternative slots returned
const MaxSuggestions = 3

// Log messages
const (
	LogMsgAvailabilityChecked = "Availability checked"
)
