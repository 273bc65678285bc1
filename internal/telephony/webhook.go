package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// Webhook form shapes. Twilio sends application/x-www-form-urlencoded.
//
// Keep these provider-adapter-only; business logic lives behind the
// interfaces in http_handlers.go.

// StatusForm captures a call lifecycle event from the status callback.
type StatusForm struct {
	CallSid      string
	CallStatus   string
	ErrorMessage string
	From         string
	To           string

	// Duration is only present once the provider reports completion.
	Duration *int
}

// ParseStatusForm reads the status callback body. The form is parsed exactly
// once here; signature validation must reuse r.PostForm rather than re-read
// the body.
func ParseStatusForm(r *http.Request) (StatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusForm{}, err
	}
	f := StatusForm{
		CallSid:      strings.TrimSpace(r.PostFormValue("CallSid")),
		CallStatus:   strings.TrimSpace(r.PostFormValue("CallStatus")),
		ErrorMessage: r.PostFormValue("ErrorMessage"),
		From:         r.PostFormValue("From"),
		To:           r.PostFormValue("To"),
	}
	if v := r.PostFormValue("CallDuration"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d := n
			f.Duration = &d
		}
	}
	return f, nil
}

// IncomingForm captures the call-setup fields of an unsolicited inbound call.
type IncomingForm struct {
	CallSid string
	From    string
	To      string
}

func ParseIncomingForm(r *http.Request) (IncomingForm, error) {
	if err := r.ParseForm(); err != nil {
		return IncomingForm{}, err
	}
	return IncomingForm{
		CallSid: strings.TrimSpace(r.PostFormValue("CallSid")),
		From:    strings.TrimSpace(r.PostFormValue("From")),
		To:      strings.TrimSpace(r.PostFormValue("To")),
	}, nil
}
