// Package action handles user-triggered transitions: votes, applied /
// not-interested marks, and undo. Writes land locally first, the UI is
// told to re-render immediately, and the network dispatch happens in the
// background — the undo window only gates the user's ability to reverse,
// never the write timing.
package action

import (
	"context"
	"errors"
	"sync"
	"time"

	"vacancyboard-engine/internal/domain"
	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/sink"
	"vacancyboard-engine/internal/state"
)

var (
	ErrUnknownVerb          = errors.New("unknown verb")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNoUndoWindow         = errors.New("no undo window open for this listing")
)

const dispatchTimeout = 30 * time.Second

// pendingUndo is one open undo window. prev is the track value from just
// before the verb was applied; nil means there was none.
type pendingUndo struct {
	verb  domain.Verb
	prev  *domain.ActionRecord
	timer *time.Timer
}

// Controller applies verbs optimistically and manages undo windows.
type Controller struct {
	store  *state.Store
	syncer *remote.Syncer
	notify func() // re-render trigger
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingUndo
}

func NewController(store *state.Store, syncer *remote.Syncer, notify func(), undoWindow time.Duration) *Controller {
	if notify == nil {
		notify = func() {}
	}
	return &Controller{
		store:   store,
		syncer:  syncer,
		notify:  notify,
		window:  undoWindow,
		now:     time.Now,
		pending: make(map[string]*pendingUndo),
	}
}

// Apply runs one verb against one listing. State-changing verbs must
// arrive with confirmed=true (the UI's yes/no prompt); votes need no
// confirmation. A verb applied while an earlier undo window is still open
// on the same listing supersedes it: the old countdown is cancelled so a
// stale undo can never restore an intermediate value.
func (c *Controller) Apply(ctx context.Context, jobID string, verb domain.Verb, confirmed bool) error {
	if !verb.Valid() {
		return ErrUnknownVerb
	}
	if verb == domain.VerbUndo {
		return c.Undo(ctx, jobID)
	}
	if verb.IsStateVerb() && !confirmed {
		return ErrConfirmationRequired
	}

	now := c.now()

	c.mu.Lock()
	prev := c.snapshotPrev(jobID, verb)

	switch verb {
	case domain.VerbMarkApplied:
		c.store.SetAction(jobID, domain.ActionApplied, now)
	case domain.VerbMarkNotInterested:
		c.store.SetAction(jobID, domain.ActionNotInterested, now)
	case domain.VerbVoteRight:
		c.store.SetVote(jobID, domain.VoteRight, now)
	case domain.VerbVoteWrong:
		c.store.SetVote(jobID, domain.VoteWrong, now)
	}

	c.openWindow(jobID, verb, prev)
	c.mu.Unlock()

	c.notify()
	go c.dispatch(jobID, verb, now)
	return nil
}

// Undo reverses the verb whose window is still open on jobID, restoring
// the previous track value rather than blindly clearing it.
func (c *Controller) Undo(ctx context.Context, jobID string) error {
	c.mu.Lock()
	p, ok := c.pending[jobID]
	if !ok {
		c.mu.Unlock()
		return ErrNoUndoWindow
	}
	p.timer.Stop()
	delete(c.pending, jobID)

	now := c.now()
	if p.verb.IsStateVerb() {
		if p.prev != nil {
			c.store.SetAction(jobID, p.prev.Action, p.prev.Timestamp)
		} else {
			c.store.SetAction(jobID, domain.ActionUndo, now)
		}
	} else {
		if p.prev != nil {
			c.store.SetVote(jobID, p.prev.Vote, p.prev.Timestamp)
		} else {
			c.store.ClearVote(jobID)
		}
	}
	c.mu.Unlock()

	c.notify()
	go c.dispatchUndo(jobID, p.verb, now)
	return nil
}

// HasWindow reports whether an undo window is currently open for jobID.
func (c *Controller) HasWindow(jobID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[jobID]
	return ok
}

// snapshotPrev captures the affected track's current value. Caller holds mu.
func (c *Controller) snapshotPrev(jobID string, verb domain.Verb) *domain.ActionRecord {
	if verb.IsStateVerb() {
		if rec, ok := c.store.Action(jobID); ok {
			return &rec
		}
		return nil
	}
	if rec, ok := c.store.Vote(jobID); ok {
		return &rec
	}
	return nil
}

// openWindow starts (or restarts) the undo countdown. Caller holds mu.
func (c *Controller) openWindow(jobID string, verb domain.Verb, prev *domain.ActionRecord) {
	if p, ok := c.pending[jobID]; ok {
		p.timer.Stop()
	}
	p := &pendingUndo{verb: verb, prev: prev}
	p.timer = time.AfterFunc(c.window, func() {
		// Window elapsed: the action is committed. The dispatch already
		// fired at apply time, so expiry is bookkeeping only.
		c.mu.Lock()
		if cur, ok := c.pending[jobID]; ok && cur == p {
			delete(c.pending, jobID)
		}
		c.mu.Unlock()
	})
	c.pending[jobID] = p
}

func (c *Controller) dispatch(jobID string, verb domain.Verb, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	switch verb {
	case domain.VerbMarkApplied:
		c.syncer.Audit(ctx, sink.StateEvent(jobID, domain.ActionApplied, now))
		c.syncer.PushMerged(ctx)
	case domain.VerbMarkNotInterested:
		c.syncer.Audit(ctx, sink.StateEvent(jobID, domain.ActionNotInterested, now))
		c.syncer.PushMerged(ctx)
	case domain.VerbVoteRight:
		c.syncer.Audit(ctx, sink.VoteEvent(jobID, domain.VoteRight, now))
	case domain.VerbVoteWrong:
		c.syncer.Audit(ctx, sink.VoteEvent(jobID, domain.VoteWrong, now))
	}
}

func (c *Controller) dispatchUndo(jobID string, undone domain.Verb, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	c.syncer.Audit(ctx, sink.UndoEvent(jobID, undoneName(undone), now))
	if undone.IsStateVerb() {
		c.syncer.PushMerged(ctx)
	}
}

// undoneName yields the audit suffix: undo_applied, undo_vote_right, ...
func undoneName(v domain.Verb) string {
	switch v {
	case domain.VerbMarkApplied:
		return "applied"
	case domain.VerbMarkNotInterested:
		return "not_interested"
	default:
		return string(v)
	}
}
