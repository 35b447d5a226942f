// Package pipeline implements the orchestrator tying together the sink, the
// semantic cache, the embedding provider, the five agent stages, and the
// fan-out bus into the single Run(ctx, thoughtID) entry point the broker
// consumer drives, per §4.3. The recovery sweeper reaches it only indirectly,
// by republishing a ThoughtCreated event.
package pipeline

import "thoughtstream/internal/errkind"

// Outcome classifies the result of one Run call for the caller's dispatch
// logic (ack/nack/republish), mirroring original_source/batch_processor/
// processor.py's three-way disposition of a processed item.
type Outcome int

const (
	OK Outcome = iota
	TransientFail
	PermanentFail
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case TransientFail:
		return "transient_fail"
	case PermanentFail:
		return "permanent_fail"
	default:
		return "unknown"
	}
}

// outcomeFromError classifies a stage/sink/cache error into an Outcome plus
// the errkind.Kind to record and publish, per §4.5.
func outcomeFromError(err error, fallback errkind.Kind) (Outcome, errkind.Kind) {
	if err == nil {
		return OK, ""
	}
	if kind, ok := errkind.PermanentKind(err); ok {
		return PermanentFail, kind
	}
	if kind, ok := errkind.TransientKind(err); ok {
		return TransientFail, kind
	}
	return PermanentFail, fallback
}
