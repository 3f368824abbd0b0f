package workspace

import (
	"errors"

	"github.com/zonekit/deliveryzones/internal/api"
	"github.com/zonekit/deliveryzones/internal/model"
)

// User-facing messages.
const (
	MsgLoadFailed    = "Failed to load delivery zones"
	MsgCenterUpdated = "Center updated"
	MsgCenterFailed  = "Failed to update center"
	MsgZoneCreated   = "Zone created"
	MsgZoneUpdated   = "Zone updated"
	MsgSaveFailed    = "Failed to save zone"
	MsgZoneDeleted   = "Zone deleted"
	MsgDeleteFailed  = "Failed to delete zone"
	MsgPolygonDrawn  = "Polygon created"
)

// Notice is a message for the operator.
type Notice struct {
	Message string
	IsError bool
}

// errorMessage picks the text shown for err: a validation message as is, a
// server-reported detail when there is one, fallback otherwise.
func errorMessage(err error, fallback string) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *api.ServerError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}

func (w *Workspace) notify(msg string, isError bool) {
	n := Notice{Message: msg, IsError: isError}

	w.noticesMu.Lock()
	w.notices = append(w.notices, n)
	w.noticesMu.Unlock()

	if w.deps.OnNotice != nil {
		w.deps.OnNotice(n)
	}
}

// Notices returns every notice raised so far, oldest first.
func (w *Workspace) Notices() []Notice {
	w.noticesMu.Lock()
	defer w.noticesMu.Unlock()
	return append([]Notice(nil), w.notices...)
}

// LastNotice returns the most recent notice.
func (w *Workspace) LastNotice() (Notice, bool) {
	w.noticesMu.Lock()
	defer w.noticesMu.Unlock()
	if len(w.notices) == 0 {
		return Notice{}, false
	}
	return w.notices[len(w.notices)-1], true
}
