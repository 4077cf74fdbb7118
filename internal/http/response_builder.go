package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// Client-side events raised through HX-Trigger. web/static/app.js and the
// hx-trigger attributes in the templates listen for these names.
const (
	eventNotification = "show-notification"
	eventFormReset    = "form:reset"
	eventCartUpdated  = "cart:updated"
	eventExportDone   = "export:done"
)

// NotificationType is the toast style app.js renders.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// duration is how long a toast of this type stays up, in milliseconds.
func (t NotificationType) duration() int {
	switch t {
	case NotificationError:
		return 5000
	case NotificationWarning:
		return 4000
	default:
		return 3000
	}
}

// HTMXResponseBuilder collects HX-* headers, triggers and an optional body
// and writes them in one go.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	header     http.Header
	statusCode int
	body       []byte
}

func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   map[string]any{},
		header:     http.Header{},
		statusCode: http.StatusOK,
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.header.Set(name, value)
	return b
}

// Trigger adds an event to HX-Trigger. A later call with the same name wins.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.triggers[name] = detail
	return b
}

// TriggerChanged raises "<resource>:changed" so lists bound with
// hx-trigger="<resource>:changed from:body" reload.
func (b *HTMXResponseBuilder) TriggerChanged(resource string) *HTMXResponseBuilder {
	return b.Trigger(resource+":changed", struct{}{})
}

func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(eventFormReset, struct{}{})
}

// TriggerCartUpdated carries the new item count for the nav badge.
func (b *HTMXResponseBuilder) TriggerCartUpdated(count int) *HTMXResponseBuilder {
	return b.Trigger(eventCartUpdated, map[string]int{"count": count})
}

// TriggerExportDone hands the exported sheet URL to the page, which opens it.
func (b *HTMXResponseBuilder) TriggerExportDone(url string) *HTMXResponseBuilder {
	return b.Trigger(eventExportDone, map[string]string{"url": url})
}

func (b *HTMXResponseBuilder) TriggerNotification(t NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, map[string]any{
		"type":     string(t),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerNotice shows a toast for as long as its type usually stays up.
func (b *HTMXResponseBuilder) TriggerNotice(t NotificationType, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(t, message, t.duration())
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotice(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotice(NotificationError, message)
}

// Redirect makes htmx navigate the whole page.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", url)
}

func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.header.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.header {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if raw, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(raw))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message, escaped, as an error fragment.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}
