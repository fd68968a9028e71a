package dispatcher

import "fmt"

// Outcome is the terminal state of one dispatched message.
type Outcome int

const (
	// OutcomeNotCommand means the body did not match the prefix or mention form.
	OutcomeNotCommand Outcome = iota
	// OutcomeNotFound means no command or fallback resolved the token.
	OutcomeNotFound
	OutcomeUnknown
	OutcomeDisabled
	OutcomeReplyOnly
	OutcomeGroupOnly
	OutcomeDenied
	OutcomeClientAdmin
	OutcomeInvalidArgs
	OutcomeFailed
	OutcomeRan
)

var outcomeNames = map[Outcome]string{
	OutcomeNotCommand:  "not_command",
	OutcomeNotFound:    "not_found",
	OutcomeUnknown:     "unknown",
	OutcomeDisabled:    "disabled",
	OutcomeReplyOnly:   "reply_only",
	OutcomeGroupOnly:   "group_only",
	OutcomeDenied:      "denied",
	OutcomeClientAdmin: "client_admin",
	OutcomeInvalidArgs: "invalid_args",
	OutcomeFailed:      "failed",
	OutcomeRan:         "ran",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Outcomes lists every outcome, for pre-registering metric labels.
func Outcomes() []Outcome {
	out := make([]Outcome, 0, len(outcomeNames))
	for o := OutcomeNotCommand; o <= OutcomeRan; o++ {
		out = append(out, o)
	}
	return out
}
