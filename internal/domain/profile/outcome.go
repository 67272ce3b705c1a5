package profile

import "errors"

// ReadOutcome tags the result of a store read.
type ReadOutcome string

const (
	ReadOK       ReadOutcome = "ok"
	ReadNotFound ReadOutcome = "not_found"
	ReadFailed   ReadOutcome = "failed"
)

// ClassifyRead maps a ReadOne result onto its outcome. A nil record with a nil
// error is treated as absent.
func ClassifyRead(rec *Record, err error) ReadOutcome {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		return ReadNotFound
	case err != nil:
		return ReadFailed
	case rec == nil:
		return ReadNotFound
	}
	return ReadOK
}

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// resolve builds the displayed record for userID: remote values where present,
// defaults otherwise, email from the remote record or else the fallback.
func resolve(userID string, remote *Record, fallbackEmail string) Record {
	rec := Record{ID: userID}
	if remote != nil {
		rec = remote.Clone()
		rec.ID = userID
	}
	if rec.Email == "" {
		rec.Email = fallbackEmail
	}
	return rec
}
