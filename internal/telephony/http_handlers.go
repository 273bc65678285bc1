package telephony

import (
	"context"
	"net/http"

	"courier-bridge/internal/phone"
	"courier-bridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Webhook handlers convert provider callbacks to internal operations and
// always answer in the shape the provider expects: TwiML for live-call
// callbacks, plain text for status events.
//
// A live-call callback must never see a non-TwiML error response; the
// provider would play an opaque error announcement to the caller. Internal
// failures degrade to a spoken apology and hangup instead.

// StatusApplier applies a provider-reported status to the call log.
type StatusApplier interface {
	ApplyStatus(ctx context.Context, callSID, providerStatus string, durationSeconds *int, errorMessage string) error
}

// IncomingRecorder logs an unsolicited inbound call attempt.
type IncomingRecorder interface {
	RecordBlockedCall(ctx context.Context, callSID, maskedFrom string) error
}

// SettingsReader resolves runtime-configurable values. Misses return
// empty without error distinction; handlers fall back to defaults.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

const (
	settingBusinessPhone   = "business_phone_number"
	settingIncomingMessage = "incoming_call_message"
)

const defaultIncomingMessage = "This number is for outbound calls only. Please wait for our agent to call you."

const apologyMessage = "We are sorry, the call cannot be completed right now. Please try again later."

type WebhookHandlers struct {
	Statuses StatusApplier
	Incoming IncomingRecorder
	Settings SettingsReader

	Validator SignatureValidator

	// EnforceSignature is off only in local/dev environments, where no
	// publicly reachable signing round-trip exists.
	EnforceSignature bool

	// BusinessPhone is the env-configured business number; a stored setting
	// takes precedence at request time.
	BusinessPhone string

	// PublicBaseURL is the deployment's public scheme+host, used to rebuild
	// the URL the provider signed. When empty (tests, local), forwarded
	// headers and the Host header stand in.
	PublicBaseURL string
}

// HandleConnect serves the control document for the courier leg. The
// provider invokes it once the courier answers a call this system initiated
// moments earlier, so it is exempt from signature validation; the URL is
// single-use and carries the call's own identifiers.
//
// Responds 200 text/xml always, even on internal error.
func (h WebhookHandlers) HandleConnect(c *gin.Context) {
	log := logger.FromGin(c)

	customerPhone := c.Query("customerPhone")
	if customerPhone == "" || !phone.IsE164(customerPhone) {
		log.Warn("connect callback with missing or invalid customer phone",
			"customer_id", c.Query("customerId"), "valid", phone.IsE164(customerPhone))
		h.writeApology(c)
		return
	}

	callerID := h.businessPhone(c.Request.Context())
	if callerID == "" || !phone.IsE164(callerID) {
		log.Error("business phone number missing or invalid", "configured", callerID != "")
		h.writeApology(c)
		return
	}

	twiml, err := DialNumber(customerPhone, DialOptions{CallerID: callerID})
	if err != nil {
		log.Error("dial twiml render failed", "err", err)
		h.writeApology(c)
		return
	}

	log.Info("connect callback bridged",
		"customer_id", c.Query("customerId"),
		"courier_id", c.Query("courierId"),
		"customer_phone", phone.Mask(customerPhone))
	writeTwiML(c, twiml)
}

// HandleStatus ingests asynchronous call lifecycle events.
//
// Responses: 200 OK text on success, 400 without CallSid, 401 on signature
// failure, 500 when the store write fails. The provider redelivers on 5xx.
func (h WebhookHandlers) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseStatusForm(c.Request)
	if err != nil {
		log.Warn("status callback parse failed", "err", err)
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	if h.EnforceSignature && !h.Validator.ValidateRequest(c.Request, h.signatureBase(c)) {
		log.Warn("status callback signature invalid", "call_sid", form.CallSid)
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	if form.CallSid == "" {
		log.Warn("status callback missing CallSid")
		c.String(http.StatusBadRequest, "Missing CallSid")
		return
	}

	if err := h.Statuses.ApplyStatus(c.Request.Context(), form.CallSid, form.CallStatus, form.Duration, form.ErrorMessage); err != nil {
		log.Error("status apply failed", "call_sid", form.CallSid, "status", form.CallStatus, "err", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Info("status applied", "call_sid", form.CallSid, "provider_status", form.CallStatus)
	c.String(http.StatusOK, "OK")
}

// HandleIncoming blocks unsolicited inbound calls to the business number:
// speak a configurable message, hang up, and log the attempt with the caller
// masked. Logging is best-effort; the caller always hears the message.
func (h WebhookHandlers) HandleIncoming(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseIncomingForm(c.Request)
	if err != nil {
		log.Warn("incoming callback parse failed", "err", err)
		// Caller identity is unreadable, but the attempt still happened.
		if h.Incoming != nil {
			if err := h.Incoming.RecordBlockedCall(c.Request.Context(), "", "****"); err != nil {
				log.Error("incoming call log failed", "err", err)
			}
		}
		h.writeIncomingMessage(c, defaultIncomingMessage)
		return
	}

	if h.EnforceSignature && !h.Validator.ValidateRequest(c.Request, h.signatureBase(c)) {
		log.Warn("incoming callback signature invalid", "call_sid", form.CallSid)
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	message := defaultIncomingMessage
	if h.Settings != nil {
		if v, err := h.Settings.Get(c.Request.Context(), settingIncomingMessage); err == nil && v != "" {
			message = v
		}
	}

	if h.Incoming != nil {
		if err := h.Incoming.RecordBlockedCall(c.Request.Context(), form.CallSid, phone.Mask(form.From)); err != nil {
			log.Error("incoming call log failed", "call_sid", form.CallSid, "err", err)
		}
	}

	log.Info("incoming call blocked", "call_sid", form.CallSid, "from", phone.Mask(form.From))
	h.writeIncomingMessage(c, message)
}

func (h WebhookHandlers) businessPhone(ctx context.Context) string {
	if h.Settings != nil {
		if v, err := h.Settings.Get(ctx, settingBusinessPhone); err == nil && v != "" {
			return v
		}
	}
	return h.BusinessPhone
}

func (h WebhookHandlers) writeApology(c *gin.Context) {
	twiml, err := SayAndHangup(apologyMessage)
	if err != nil {
		// Unreachable with a non-empty constant, but never answer a live-call
		// callback with a non-TwiML body.
		twiml = xmlFallback
	}
	writeTwiML(c, twiml)
}

func (h WebhookHandlers) writeIncomingMessage(c *gin.Context, message string) {
	twiml, err := SayAndHangup(message)
	if err != nil {
		twiml = xmlFallback
	}
	writeTwiML(c, twiml)
}

const xmlFallback = `<?xml version="1.0" encoding="UTF-8"?><Response><Hangup></Hangup></Response>`

func writeTwiML(c *gin.Context, body string) {
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, body)
}

// signatureBase yields scheme+host for signature URL reconstruction. The
// configured public base wins; otherwise forwarded headers, then the request.
func (h WebhookHandlers) signatureBase(c *gin.Context) string {
	if h.PublicBaseURL != "" {
		return h.PublicBaseURL
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return requestScheme(c) + "://" + host
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
