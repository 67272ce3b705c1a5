package profile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bankprofile/internal/domain/identity"
)

// State is the editor's view mode.
type State string

const (
	StateLoading   State = "loading"
	StateViewing   State = "viewing"
	StateEditing   State = "editing"
	StateSaving    State = "saving"
	StateLoadError State = "load_error"
	StateSaveError State = "save_error"
)

// DefaultSavedFlagDelay is how long the saved confirmation stays up.
const DefaultSavedFlagDelay = 3 * time.Second

// EditorView is a snapshot of everything needed to render the editor.
type EditorView struct {
	Version   uint64      `json:"version"`
	State     State       `json:"state"`
	UserID    string      `json:"user_id,omitempty"`
	Record    Record      `json:"record"`
	Draft     *Record     `json:"draft,omitempty"`
	Editing   bool        `json:"editing"`
	Saving    bool        `json:"saving"`
	Saved     bool        `json:"saved"`
	LastRead  ReadOutcome `json:"last_read,omitempty"`
	Error     string      `json:"error,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

type EditorOption func(*Editor)

func WithSavedFlagDelay(d time.Duration) EditorOption {
	return func(e *Editor) {
		if d > 0 {
			e.savedDelay = d
		}
	}
}

func WithLogger(log *zap.Logger) EditorOption {
	return func(e *Editor) {
		if log != nil {
			e.log = log
		}
	}
}

// Editor is the profile editor state machine. Store calls run on the calling
// goroutine with the lock released; their results are applied only if the
// editor is still open and the call is still current.
type Editor struct {
	store      Store
	identity   identity.Provider
	log        *zap.Logger
	savedDelay time.Duration

	mu         sync.Mutex
	state      State
	userID     string
	record     Record
	draft      *Record
	lastRead   ReadOutcome
	err        error
	saved      bool
	savedTimer *time.Timer
	savedGen   uint64
	loadGen    uint64
	version    uint64
	closed     bool
	onChange   func(EditorView)

	// notifyMu orders observer calls; lastNotified is the newest delivered version
	notifyMu     sync.Mutex
	lastNotified uint64
}

func NewEditor(store Store, provider identity.Provider, opts ...EditorOption) *Editor {
	e := &Editor{
		store:      store,
		identity:   provider,
		log:        zap.NewNop(),
		savedDelay: DefaultSavedFlagDelay,
		state:      StateLoading,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers fn to receive a view after every state change. Views
// arrive in increasing Version order; a view overtaken by a newer one is not
// delivered. fn runs outside the editor lock and may call View, but must not
// change editor state.
func (e *Editor) OnChange(fn func(EditorView)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// View returns the current snapshot.
func (e *Editor) View() EditorView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Load reads the current identity's record. Without an identity the editor
// stays in StateLoading and the store is not called. A read failure moves
// the editor to StateLoadError; it is not returned.
func (e *Editor) Load(ctx context.Context) error {
	id, authenticated := e.identity.Current(ctx)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrSaveInFlight
	}

	sameUser := authenticated && id.ID == e.userID
	if sameUser && (e.state == StateEditing || e.state == StateSaveError) {
		e.mu.Unlock()
		return ErrInvalidTransition
	}

	e.loadGen++
	gen := e.loadGen
	e.state = StateLoading
	e.draft = nil
	e.err = nil
	e.lastRead = ""
	if !sameUser {
		e.stopSavedTimerLocked()
		e.saved = false
	}

	if !authenticated {
		e.userID = ""
		e.record = Record{}
		e.unlockAndNotify()
		return nil
	}

	if !sameUser {
		e.record = Record{ID: id.ID, Email: id.Email}
	}
	e.userID = id.ID
	e.unlockAndNotify()

	remote, err := e.store.ReadOne(ctx, id.ID)
	outcome := ClassifyRead(remote, err)

	e.mu.Lock()
	if e.closed || gen != e.loadGen {
		e.mu.Unlock()
		e.log.Debug("dropping stale profile load", zap.String("user_id", id.ID))
		return nil
	}

	e.lastRead = outcome
	switch outcome {
	case ReadOK:
		e.record = resolve(id.ID, remote, id.Email)
		e.state = StateViewing
	case ReadNotFound:
		e.record = resolve(id.ID, nil, id.Email)
		e.state = StateViewing
	default:
		e.record = resolve(id.ID, nil, id.Email)
		e.err = err
		e.state = StateLoadError
		e.log.Warn("profile load failed", zap.String("user_id", id.ID), zap.Error(err))
	}
	e.unlockAndNotify()
	return nil
}

// EnterEdit snapshots the displayed record into a draft. From StateSaveError
// it resumes the draft that failed to save. Calling it while editing is a no-op.
func (e *Editor) EnterEdit() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}

	switch e.state {
	case StateEditing:
		e.mu.Unlock()
		return nil
	case StateViewing:
		draft := e.record.Clone()
		e.draft = &draft
	case StateSaveError:
		e.err = nil
	default:
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	e.state = StateEditing
	e.unlockAndNotify()
	return nil
}

// UpdateField sets one draft field. The store is not touched.
func (e *Editor) UpdateField(key, value string) error {
	f, err := ParseField(key)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.state != StateEditing || e.draft == nil {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if err := e.draft.set(f, value); err != nil {
		e.mu.Unlock()
		return err
	}
	e.unlockAndNotify()
	return nil
}

// CancelEdit discards the draft, shows the record as it was before editing
// began, and reloads it from the store.
func (e *Editor) CancelEdit(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.state != StateEditing && e.state != StateSaveError {
		e.mu.Unlock()
		return ErrNotEditing
	}
	e.draft = nil
	e.err = nil
	e.state = StateViewing
	e.unlockAndNotify()

	return e.Load(ctx)
}

// Save writes the draft. A call made while a save is in flight returns
// without writing. On failure the draft is kept and the editor moves to
// StateSaveError; the error is reported through View, not returned.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.state == StateSaving {
		e.mu.Unlock()
		return nil
	}
	if (e.state != StateEditing && e.state != StateSaveError) || e.draft == nil {
		e.mu.Unlock()
		return ErrNotEditing
	}

	e.stopSavedTimerLocked()
	e.saved = false
	e.err = nil
	e.state = StateSaving
	draft := e.draft.Clone()
	userID := e.userID
	e.unlockAndNotify()

	err := e.store.UpdateOne(ctx, userID, draft.Update())

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.log.Debug("dropping profile save result for closed editor", zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	if err != nil {
		e.err = err
		e.state = StateSaveError
		e.log.Warn("profile save failed", zap.String("user_id", userID), zap.Error(err))
		e.unlockAndNotify()
		return nil
	}

	draft.ID = userID
	draft.Email = e.record.Email
	e.record = draft
	e.draft = nil
	e.state = StateViewing
	e.saved = true
	e.scheduleSavedClearLocked()
	e.unlockAndNotify()
	return nil
}

// DismissSaved hides the saved confirmation early.
func (e *Editor) DismissSaved() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	e.stopSavedTimerLocked()
	if !e.saved {
		e.mu.Unlock()
		return nil
	}
	e.saved = false
	e.unlockAndNotify()
	return nil
}

// Close disposes the editor. In-flight loads and saves complete against the
// store but their results are dropped.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopSavedTimerLocked()
	e.draft = nil
	e.onChange = nil
}

func (e *Editor) scheduleSavedClearLocked() {
	e.savedGen++
	gen := e.savedGen
	e.savedTimer = time.AfterFunc(e.savedDelay, func() {
		e.clearSaved(gen)
	})
}

func (e *Editor) stopSavedTimerLocked() {
	if e.savedTimer != nil {
		e.savedTimer.Stop()
		e.savedTimer = nil
	}
	e.savedGen++
}

func (e *Editor) clearSaved(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.savedGen || !e.saved {
		e.mu.Unlock()
		return
	}
	e.saved = false
	e.savedTimer = nil
	e.unlockAndNotify()
}

// unlockAndNotify bumps the version, releases the lock and hands the new view
// to the observer unless a newer one was already delivered.
func (e *Editor) unlockAndNotify() {
	e.version++
	view := e.viewLocked()
	fn := e.onChange
	e.mu.Unlock()
	if fn == nil {
		return
	}

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if view.Version <= e.lastNotified {
		return
	}
	e.lastNotified = view.Version
	fn(view)
}

func (e *Editor) viewLocked() EditorView {
	v := EditorView{
		Version:  e.version,
		State:    e.state,
		UserID:   e.userID,
		Record:   e.record.Clone(),
		Editing:  e.state == StateEditing,
		Saving:   e.state == StateSaving,
		Saved:    e.saved,
		LastRead: e.lastRead,
	}
	if e.draft != nil {
		d := e.draft.Clone()
		v.Draft = &d
	}
	if e.err != nil {
		v.Error = e.err.Error()
		v.Retryable = IsRetryable(e.err)
	}
	return v
}
