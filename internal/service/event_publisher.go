package service

// EventPublisher announces training lifecycle events. Payloads carry the
// training id under training.PayloadTrainingID. eventbus.EventBus satisfies it.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}
