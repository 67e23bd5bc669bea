package command

import "github.com/ytget/dlcore/internal/command/errs"

// Envelope converts a command's returned error into the stable shape a UI
// host renders, and reports whether there was an error to convert at all.
func Envelope(err error) (errs.Envelope, bool) {
	if err == nil {
		return errs.Envelope{}, false
	}
	return errs.ToEnvelope(err), true
}
