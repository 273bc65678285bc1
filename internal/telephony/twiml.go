package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary: speak a message,
// dial a single number with a masked caller ID, hang up.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlDial struct {
	XMLName        xml.Name `xml:"Dial"`
	CallerID       string   `xml:"callerId,attr,omitempty"`
	TimeoutSeconds int      `xml:"timeout,attr,omitempty"`
	Record         string   `xml:"record,attr,omitempty"`
	Number         string   `xml:"Number,omitempty"`
}

// DialOptions controls the customer leg of a bridged call.
type DialOptions struct {
	// CallerID replaces the courier's real number on the customer-facing leg.
	CallerID string

	// TimeoutSeconds bounds how long the customer leg rings before the
	// courier is released. Zero means the builder default.
	TimeoutSeconds int

	// Record enables call recording. Off unless explicitly requested.
	Record bool
}

const defaultDialTimeoutSeconds = 30

const sayVoice = "alice"
const sayLanguage = "en-US"

// DialNumber builds a control document that bridges the answered leg to a
// single PSTN number.
func DialNumber(number string, opts DialOptions) (string, error) {
	if strings.TrimSpace(number) == "" {
		return "", errors.New("telephony: dial number required")
	}
	d := twimlDial{
		CallerID:       opts.CallerID,
		TimeoutSeconds: opts.TimeoutSeconds,
		Number:         number,
	}
	if d.TimeoutSeconds <= 0 {
		d.TimeoutSeconds = defaultDialTimeoutSeconds
	}
	if opts.Record {
		d.Record = "record-from-answer"
	} else {
		d.Record = "do-not-record"
	}
	return render(twimlResponse{Verbs: []any{d}})
}

// SayAndHangup builds a control document that speaks a message and ends the
// call. Used both for blocked inbound calls and as the graceful degradation
// path when a live-call webhook cannot do anything better.
func SayAndHangup(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("telephony: message required")
	}
	return render(twimlResponse{Verbs: []any{
		twimlSay{Voice: sayVoice, Language: sayLanguage, Text: message},
		twimlHangup{},
	}})
}

func render(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
