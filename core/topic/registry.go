package topic

import "slices"

// Subscribe registers persistent subscribers on the topic.
// Nil entries and zero Subscriber values are ignored. The same subscriber may be registered more than once;
// each registration is delivered independently.
func (t *Topic) Subscribe(subs ...*Subscriber) *Topic {
	n := t.n
	n.mu.Lock()
	n.subscribers = appendUsable(n.subscribers, subs)
	n.mu.Unlock()
	return t
}

// Once registers subscribers that receive the next delivered payload and are then removed.
func (t *Topic) Once(subs ...*Subscriber) *Topic {
	n := t.n
	n.mu.Lock()
	n.once = appendUsable(n.once, subs)
	n.mu.Unlock()
	return t
}

// Unsubscribe removes the given subscribers from both the persistent and the once lists.
// Without arguments it removes every subscriber of this topic; descendants are untouched.
// Subscribers that are not registered are ignored.
func (t *Topic) Unsubscribe(subs ...*Subscriber) *Topic {
	n := t.n
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(subs) == 0 {
		n.subscribers = nil
		n.once = nil
		return t
	}

	n.subscribers = without(n.subscribers, subs)
	n.once = without(n.once, subs)
	return t
}

// Clear removes every subscriber from this topic and all of its descendants.
// Middleware and the topics themselves are kept.
func (t *Topic) Clear() *Topic {
	t.Unsubscribe()

	t.n.mu.Lock()
	children := t.n.childNodes()
	t.n.mu.Unlock()

	for _, c := range children {
		c.handle.Clear()
	}
	return t
}

// Subscribers reports how many registrations (persistent and once) the topic holds.
func (t *Topic) Subscribers() int {
	t.n.mu.Lock()
	defer t.n.mu.Unlock()
	return len(t.n.subscribers) + len(t.n.once)
}

// token is a registration handle built by NewSubscriber or NewMiddleware.
type token interface {
	usable() bool
}

// appendUsable skips nil tokens and zero values that carry no callback.
func appendUsable[T token](dst []T, src []T) []T {
	for _, v := range src {
		if v.usable() {
			dst = append(dst, v)
		}
	}
	return dst
}

// without returns a new slice holding the entries of list not present in drop.
// A fresh slice keeps snapshots taken by in-flight deliveries intact.
func without[T any](list []*T, drop []*T) []*T {
	out := make([]*T, 0, len(list))
	for _, v := range list {
		if !slices.Contains(drop, v) {
			out = append(out, v)
		}
	}
	return out
}
