package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	"opsdesk/internal/filter"
	applog "opsdesk/internal/log"
	"opsdesk/internal/session"
)

const storeName = "opsdesk"

// view is what every page template receives. Data holds the page's own model.
type view struct {
	Title     string
	Nav       string
	Store     string
	Flash     *session.Flash
	CartCount int
	Error     string
	Data      any
}

func (s *Server) templateFuncs() template.FuncMap {
	symbol := s.cfg.CurrencySymbol
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(symbol) },
		"percent": func(v float64) string {
			return core.FormatPercent(v) + "%"
		},
		"discountValue": func(t core.DiscountType, v float64) string {
			return core.ValueLabel(t, v, symbol)
		},
		"date": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.String()
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"quantity": func(v float64) string { return core.FormatPercent(v) },
		"pageURL": func(base string, f filter.ListFilter, n int) string {
			return base + f.WithPage(n).QueryString()
		},
		"presetURL": func(base string, f filter.ListFilter, p daterange.Preset) string {
			return base + f.WithPreset(p).QueryString()
		},
		"add":             func(a, b int) int { return a + b },
		"dict":            dict,
		"presets":         daterange.Presets,
		"checklistTypes":  core.ChecklistTypes,
		"taskStatuses":    core.TaskStatuses,
		"orderStatuses":   core.OrderStatuses,
		"maxCartQuantity": func() int { return core.MaxCartQuantity },
	}
}

// render writes a page. htmx requests get only the "<name>_content"
// template; other requests get it wrapped in the layout. resp may carry
// triggers to send along; nil means a plain 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, sess *session.Session, name string, v view, resp *HTMXResponseBuilder) {
	if resp == nil {
		resp = NewHTMXResponse()
	}
	if sess == nil {
		sess = s.sessions.Load(r)
	}
	v.Store = storeName
	v.CartCount = sess.ItemCount()

	htmx := isHTMX(r)
	if htmx {
		if v.Error != "" {
			resp.TriggerErrorNotification(v.Error)
		}
	} else if f := sess.PopFlash(); f != nil {
		v.Flash = f
		s.saveSession(w, r, sess)
	}

	names := []string{"header", name + "_content", "footer"}
	if htmx {
		names = names[1:2]
	}
	var buf bytes.Buffer
	for _, n := range names {
		if err := s.templates.ExecuteTemplate(&buf, n, v); err != nil {
			s.log(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContextErr(r.Context(),
				"Template execution failed", err, "template", n)
			InternalServerError("The page could not be displayed.").Write(w)
			return
		}
	}
	resp.BodyHTML(buf.String()).Write(w)
}

// dict builds the argument map for a nested template call from key, value
// pairs.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs key and value pairs")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
