package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// htmxResponse builds HTMX partial responses: status, HX-Trigger header
// and an HTML body.
type htmxResponse struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

func newHTMXResponse() *htmxResponse {
	return &htmxResponse{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *htmxResponse) status(code int) *htmxResponse {
	b.statusCode = code
	return b
}

func (b *htmxResponse) trigger(name string, data any) *htmxResponse {
	b.triggers[name] = data
	return b
}

// triggerLedgerChanged tells the page to refresh every ledger-derived
// partial for the session.
func (b *htmxResponse) triggerLedgerChanged() *htmxResponse {
	return b.trigger("ledger:changed", struct{}{})
}

func (b *htmxResponse) header(name, value string) *htmxResponse {
	b.headers[name] = value
	return b
}

func (b *htmxResponse) bodyHTML(html string) *htmxResponse {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

func (b *htmxResponse) write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorResponse renders an HTML-escaped error div with the given status.
func errorResponse(statusCode int, message string) *htmxResponse {
	escaped := template.HTMLEscapeString(message)
	return newHTMXResponse().
		status(statusCode).
		bodyHTML(`<div class="error">` + escaped + `</div>`)
}

func methodNotAllowed(allowed string) *htmxResponse {
	return newHTMXResponse().
		status(http.StatusMethodNotAllowed).
		header("Allow", allowed)
}
