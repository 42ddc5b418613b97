package assistant

import "github.com/tailored-agentic-units/assist/observability"

// Event types emitted by scopes and binders.
const (
	// Lifecycle
	EventAssistantInit     observability.EventType = "assistant.init"
	EventAssistantDestroy  observability.EventType = "assistant.destroy"
	EventAssistantRejected observability.EventType = "assistant.rejected"

	// Root binder
	EventBinderApply  observability.EventType = "binder.apply"
	EventBinderRebind observability.EventType = "binder.rebind"

	// Dispatch cycle
	EventDispatchStart    observability.EventType = "dispatch.start"
	EventDispatchChange   observability.EventType = "dispatch.change"
	EventDispatchComplete observability.EventType = "dispatch.complete"
	EventDispatchFault    observability.EventType = "dispatch.fault"
)
