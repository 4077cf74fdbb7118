package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	applog "opsdesk/internal/log"
	"opsdesk/internal/session"
)

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// userMessage turns any handler error into text fit for a notification.
func userMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return sentence(verr.Error())
	case isDomainValidation(err):
		return sentence(err.Error())
	default:
		return api.UserMessage(err)
	}
}

func isDomainValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrNegativeAmount, core.ErrEmptyDescription,
		core.ErrDescriptionTooLong, core.ErrEmptyCategory, core.ErrInvalidPaymentType,
		core.ErrEmptyName, core.ErrEmptyCouponCode, core.ErrPercentageTooHigh,
		core.ErrInvalidDiscountType, core.ErrInvalidQuantity, core.ErrInvalidChecklist,
		core.ErrInvalidTaskStatus, core.ErrInvalidOrderStatus, core.ErrInvertedDates,
		core.ErrInvalidTaxRate, core.ErrEmptyUnit,
		daterange.ErrInvertedRange, daterange.ErrIncompleteRange, daterange.ErrUnknownPreset,
		session.ErrEmptyCart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorStatus maps a handler error to the response status.
func errorStatus(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), isDomainValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrUnavailable):
		return http.StatusBadGateway
	}
	if status := api.StatusOf(err); status != 0 {
		if status >= 400 && status < 500 {
			return status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func (s *Server) log(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentHTTP)
}

// saveSession persists the session; a failure is logged and the response
// still goes out.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.sessions.Save(w, r, sess); err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Failed to save session", err)
	}
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, sess *session.Session, to string, kind NotificationType, message string) {
	if sess == nil {
		sess = s.sessions.Load(r)
	}
	sess.SetFlash(string(kind), message)
	s.saveSession(w, r, sess)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// done completes a successful admin mutation. htmx callers get a success
// notification and a "<resource>:changed" event; plain form posts are
// redirected to back with a flash.
func (s *Server) done(w http.ResponseWriter, r *http.Request, resource, back, message string) {
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerChanged(resource).
			TriggerFormReset().
			TriggerSuccessNotification(message).
			Write(w)
		return
	}
	s.redirectWithFlash(w, r, nil, back, NotificationSuccess, message)
}

// fail reports err without leaving the page the user was on.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, back string, err error) {
	msg := userMessage(err)
	status := errorStatus(err)
	if status != http.StatusUnprocessableEntity {
		s.log(r.Context()).WarnContextErr(r.Context(), "Request failed", err,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, status)
	}
	if isHTMX(r) {
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.redirectWithFlash(w, r, nil, back, NotificationError, msg)
}

// record publishes an audit event for a successful mutation.
func (s *Server) record(ctx context.Context, action, resource, id, summary string) {
	applog.NewStructuredLogger(s.log(ctx)).LogMutation(ctx, action, resource, id)
	s.audit.Publish(ctx, audit.NewEvent(ctx, action, resource, id, summary))
}

// backTo returns the path to come back to after a form post: the referring
// page when it is on this site, else fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	if i := strings.Index(ref, "://"); i >= 0 {
		rest := ref[i+3:]
		host, path, ok := strings.Cut(rest, "/")
		if !ok || host != r.Host {
			return fallback
		}
		return "/" + path
	}
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	return fallback
}
