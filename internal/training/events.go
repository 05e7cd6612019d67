package training

// Lifecycle events that trigger member notifications. Payloads carry the
// training id under PayloadTrainingID.
const (
	EventCreated      = "training.created"
	EventPreTraining  = "training.pre_training"
	EventAwaitingExam = "training.awaiting_exam"

	PayloadTrainingID = "training_id"
)

// EventForStatus returns the event announced when a training enters status,
// or "" when entering it is silent.
func EventForStatus(s Status) string {
	switch s {
	case StatusPreTraining:
		return EventPreTraining
	case StatusAwaitingExam:
		return EventAwaitingExam
	}
	return ""
}
