package pixie

import (
	"sort"
	"sync"

	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// subscriptionOpFunc applies one pending subscribe/unsubscribe operation to
// a working subject set.
type subscriptionOpFunc func(set map[pricing.Subject]struct{}, subject pricing.Subject)

func subscribeOp(set map[pricing.Subject]struct{}, subject pricing.Subject) {
	set[subject] = struct{}{}
}

func unsubscribeOp(set map[pricing.Subject]struct{}, subject pricing.Subject) {
	delete(set, subject)
}

type pendingOp struct {
	fn      subscriptionOpFunc
	subject pricing.Subject
}

// SubscriptionRegister tracks the client's subscribed subject set across
// editions, queuing subscribe/unsubscribe calls and folding them into a new
// edition only when SubscriptionSync is called, ported from
// subscription_register.py.
type SubscriptionRegister struct {
	mu              sync.Mutex
	edition         uint64
	subjectEditions map[uint64][]pricing.Subject
	pendingOps      []pendingOp
}

// NewSubscriptionRegister builds a register seeded with edition 1 mapped to
// an empty subject set, mirroring the source's __init__.
func NewSubscriptionRegister() *SubscriptionRegister {
	return &SubscriptionRegister{
		edition:         1,
		subjectEditions: map[uint64][]pricing.Subject{1: {}},
	}
}

// Subscribe queues a subscribe operation for the next SubscriptionSync call.
func (r *SubscriptionRegister) Subscribe(subject pricing.Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingOps = append(r.pendingOps, pendingOp{subscribeOp, subject})
}

// Unsubscribe queues an unsubscribe operation for the next SubscriptionSync call.
func (r *SubscriptionRegister) Unsubscribe(subject pricing.Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingOps = append(r.pendingOps, pendingOp{unsubscribeOp, subject})
}

// SubscriptionSync applies every queued operation to a new edition and
// returns the message to send, or nil if there were no pending operations or
// applying them left the subject set unchanged from the current edition.
func (r *SubscriptionRegister) SubscriptionSync() *SubscriptionSyncMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pendingOps) == 0 {
		return nil
	}
	subjectSet, unchanged := r.activeSubjectSetLocked()
	if unchanged {
		return nil
	}
	subjects := sortedSubjects(subjectSet)
	r.edition++
	r.subjectEditions[r.edition] = subjects
	return &SubscriptionSyncMessage{Edition: r.edition, Subjects: subjects, Compressed: true}
}

// activeSubjectSetLocked folds every pending op onto a copy of the current
// edition's subject set, clearing the pending queue, and reports whether the
// result is unchanged from the current edition. Callers must hold r.mu.
func (r *SubscriptionRegister) activeSubjectSetLocked() (map[pricing.Subject]struct{}, bool) {
	previous := r.subjectEditions[r.edition]
	previousSet := make(map[pricing.Subject]struct{}, len(previous))
	for _, s := range previous {
		previousSet[s] = struct{}{}
	}
	set := make(map[pricing.Subject]struct{}, len(previousSet))
	for s := range previousSet {
		set[s] = struct{}{}
	}
	for _, op := range r.pendingOps {
		op.fn(set, op.subject)
	}
	r.pendingOps = nil
	return set, sameSubjectSet(set, previousSet)
}

// PurgeEditionsBefore discards every edition strictly older than edition,
// keeping edition itself and any newer one — ported from
// purge_editions_before's `ed >= edition` filter.
func (r *SubscriptionRegister) PurgeEditionsBefore(edition uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := make(map[uint64][]pricing.Subject, len(r.subjectEditions))
	for ed, subjects := range r.subjectEditions {
		if ed >= edition {
			purged[ed] = subjects
		}
	}
	r.subjectEditions = purged
}

// SubjectsForEdition returns the subject set registered for edition, or an
// error if that edition is no longer (or never was) registered.
func (r *SubscriptionRegister) SubjectsForEdition(edition uint64) ([]pricing.Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subjects, ok := r.subjectEditions[edition]
	if !ok {
		return nil, pricingerrors.ErrPricing.Wrapf("no subject set registered for edition %d", edition)
	}
	return subjects, nil
}

// ResetAndGetSubjects folds any pending operations into the active subject
// set, requeues every resulting subject as a fresh subscribe op, and resets
// the register back to its just-constructed state (edition 1, empty history)
// so that a reconnect resubscribes everything from scratch, mirroring
// reset_and_get_subjects.
func (r *SubscriptionRegister) ResetAndGetSubjects() []pricing.Subject {
	r.mu.Lock()
	defer r.mu.Unlock()
	subjectSet, _ := r.activeSubjectSetLocked()
	subjects := sortedSubjects(subjectSet)
	for _, s := range subjects {
		r.pendingOps = append(r.pendingOps, pendingOp{subscribeOp, s})
	}
	r.edition = 1
	r.subjectEditions = map[uint64][]pricing.Subject{1: {}}
	return subjects
}

// sortedSubjects orders subjects by Symbol, then Quantity, then their full
// canonical string form, ported from subscription_register.py's
// _subject_order (CURRENCY_PAIR there aliases the "Symbol" component).
func sortedSubjects(set map[pricing.Subject]struct{}) []pricing.Subject {
	subjects := make([]pricing.Subject, 0, len(set))
	for s := range set {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjectOrderKey(subjects[i]) < subjectOrderKey(subjects[j])
	})
	return subjects
}

func subjectOrderKey(s pricing.Subject) string {
	return s.Get(pricing.KeySymbol, "") + s.Get(pricing.KeyQuantity, "") + s.String()
}

func sameSubjectSet(a, b map[pricing.Subject]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for s := range a {
		if _, ok := b[s]; !ok {
			return false
		}
	}
	return true
}
