package request

import "context"

// deadlineKey is the context key for a propagated Deadline.
type deadlineKey struct{}

// priorityKey is the context key for a propagated Priority.
type priorityKey struct{}

// ContextWithDeadline returns a copy of ctx carrying deadline, retrievable
// later with DeadlineFromContext. Used by server-side middleware to make an
// inbound call's remaining budget available to handlers that issue their
// own downstream calls.
func ContextWithDeadline(ctx context.Context, deadline Deadline) context.Context {
	return context.WithValue(ctx, deadlineKey{}, deadline)
}

// DeadlineFromContext extracts a Deadline stored by ContextWithDeadline. ok
// is false if ctx carries none.
func DeadlineFromContext(ctx context.Context) (deadline Deadline, ok bool) {
	deadline, ok = ctx.Value(deadlineKey{}).(Deadline)
	return deadline, ok
}

// ContextWithPriority returns a copy of ctx carrying priority, retrievable
// later with PriorityFromContext.
func ContextWithPriority(ctx context.Context, priority Priority) context.Context {
	return context.WithValue(ctx, priorityKey{}, priority)
}

// PriorityFromContext extracts a Priority stored by ContextWithPriority,
// returning PriorityNormal if ctx carries none.
func PriorityFromContext(ctx context.Context) Priority {
	if p, ok := ctx.Value(priorityKey{}).(Priority); ok {
		return p
	}
	return PriorityNormal
}
