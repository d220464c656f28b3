package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/ledger"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	_ = s.sessions.sessionID(w, r)

	incomeCats, err := s.ledgers.Suggestions(r.Context(), core.Income)
	if err != nil {
		slog.ErrorContext(r.Context(), "Taxonomy error", "error", err, "kind", core.Income)
	}
	expenseCats, err := s.ledgers.Suggestions(r.Context(), core.Expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Taxonomy error", "error", err, "kind", core.Expense)
	}

	data := struct {
		Today             string
		IncomeCategories  []string
		ExpenseCategories []string
	}{
		Today:             core.Today().String(),
		IncomeCategories:  incomeCats,
		ExpenseCategories: expenseCats,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed("POST").write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		errorResponse(http.StatusBadRequest, "Malformed request").write(w)
		return
	}

	tx, err := parseTransactionForm(r.Form)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	sessionID := s.sessions.sessionID(w, r)
	unlock := s.sessions.lock(sessionID)
	defer unlock()

	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		errorResponse(http.StatusInternalServerError, "Could not load ledger").write(w)
		return
	}

	id, err := eng.Add(tx)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if err := s.ledgers.Persist(r.Context(), sessionID, eng); err != nil {
		slog.ErrorContext(r.Context(), "Session persist failed", "session_id", sessionID, "error", err)
		errorResponse(http.StatusInternalServerError, "Could not save ledger").write(w)
		return
	}
	s.invalidateSession(sessionID)

	newHTMXResponse().
		triggerLedgerChanged().
		bodyHTML(`<div class="success">Recorded #` + strconv.FormatInt(id, 10) + `: ` +
			template.HTMLEscapeString(tx.Description) +
			` (` + formatAmount(tx.Amount) + `)</div>`).
		write(w)
}

// handleTransactionByID serves POST /transactions/{id} (full replacement)
// and POST /transactions/{id}/delete.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed("POST").write(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/transactions/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		errorResponse(http.StatusBadRequest, "Invalid transaction id").write(w)
		return
	}
	if action != "" && action != "delete" {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		errorResponse(http.StatusBadRequest, "Malformed request").write(w)
		return
	}

	sessionID := s.sessions.sessionID(w, r)
	unlock := s.sessions.lock(sessionID)
	defer unlock()

	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		errorResponse(http.StatusInternalServerError, "Could not load ledger").write(w)
		return
	}

	var body string
	if action == "delete" {
		if err := eng.Delete(id); err != nil {
			writeLedgerError(w, err)
			return
		}
		body = `<div class="success">Deleted #` + strconv.FormatInt(id, 10) + `</div>`
	} else {
		tx, err := parseTransactionForm(r.Form)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		if err := eng.Update(id, tx); err != nil {
			writeLedgerError(w, err)
			return
		}
		body = `<div class="success">Updated #` + strconv.FormatInt(id, 10) + `</div>`
	}

	if err := s.ledgers.Persist(r.Context(), sessionID, eng); err != nil {
		slog.ErrorContext(r.Context(), "Session persist failed", "session_id", sessionID, "error", err)
		errorResponse(http.StatusInternalServerError, "Could not save ledger").write(w)
		return
	}
	s.invalidateSession(sessionID)

	newHTMXResponse().triggerLedgerChanged().bodyHTML(body).write(w)
}

// writeLedgerError maps engine errors to HTTP statuses: validation
// failures are 422 with the failing field, missing identities are 404.
func writeLedgerError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		errorResponse(http.StatusUnprocessableEntity, verr.Error()).write(w)
		return
	}
	var nf *ledger.NotFoundError
	if errors.As(err, &nf) {
		errorResponse(http.StatusNotFound, nf.Error()).write(w)
		return
	}
	errorResponse(http.StatusInternalServerError, "Unexpected error").write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sessionID := s.sessions.sessionID(w, r)

	key := s.cacheKey(sessionID, "summary", "")
	if html, ok := s.summaryCache.Get(key); ok {
		_, _ = w.Write([]byte(html))
		return
	}

	unlock := s.sessions.lock(sessionID)
	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	unlock()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		_, _ = w.Write([]byte(`<div class="error">Could not load summary</div>`))
		return
	}

	totals := eng.Summary()
	data := struct {
		Income  string
		Expense string
		Net     string
		Count   int
	}{
		Income:  formatAmount(totals.Income),
		Expense: formatAmount(totals.Expense),
		Net:     formatAmount(totals.Net),
		Count:   eng.Len(),
	}

	html, err := s.renderToString("summary.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "summary.html")
		_, _ = w.Write([]byte(`<div class="error">Could not render summary</div>`))
		return
	}
	s.summaryCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sessionID := s.sessions.sessionID(w, r)

	key := s.cacheKey(sessionID, "ledger", r.URL.RawQuery)
	if html, ok := s.viewCache.Get(key); ok {
		_, _ = w.Write([]byte(html))
		return
	}

	unlock := s.sessions.lock(sessionID)
	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	unlock()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		_, _ = w.Write([]byte(`<div class="error">Could not load ledger</div>`))
		return
	}

	query := parseFilterQuery(r.URL.Query())
	lines := eng.Filter(query)

	type row struct {
		ID          int64
		Date        string
		Kind        string
		Description string
		Category    string
		Subcategory string
		Notes       string
		Amount      string
		Balance     string
	}
	data := struct {
		Rows     []row
		Filtered bool
	}{Filtered: !query.IsZero()}
	for _, ln := range lines {
		data.Rows = append(data.Rows, row{
			ID:          ln.ID,
			Date:        ln.Tx.Date.String(),
			Kind:        string(ln.Tx.Kind),
			Description: ln.Tx.Description,
			Category:    ln.Tx.Category,
			Subcategory: ln.Tx.Subcategory,
			Notes:       ln.Tx.Notes,
			Amount:      formatAmount(ln.Tx.Amount),
			Balance:     formatAmount(ln.Balance),
		})
	}

	html, err := s.renderToString("ledger.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "ledger.html")
		_, _ = w.Write([]byte(`<div class="error">Could not render ledger</div>`))
		return
	}
	s.viewCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sessionID := s.sessions.sessionID(w, r)

	kind := core.Expense
	if k, err := core.ParseKind(r.URL.Query().Get("kind")); err == nil {
		kind = k
	}

	key := s.cacheKey(sessionID, "categories", string(kind))
	if html, ok := s.viewCache.Get(key); ok {
		_, _ = w.Write([]byte(html))
		return
	}

	unlock := s.sessions.lock(sessionID)
	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	unlock()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		_, _ = w.Write([]byte(`<div class="error">Could not load categories</div>`))
		return
	}

	groups := eng.GroupByCategory(kind)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	// largest first, ties by name
	sort.Slice(names, func(i, j int) bool {
		cmp := groups[names[i]].Cmp(groups[names[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return names[i] < names[j]
	})

	var max = groups[""]
	if len(names) > 0 {
		max = groups[names[0]]
	}

	type row struct {
		Name   string
		Amount string
		Width  int
	}
	data := struct {
		Kind string
		Rows []row
	}{Kind: string(kind)}
	for _, name := range names {
		width := 0
		if max.Sign() > 0 {
			width = int(groups[name].Div(max).Mul(hundred).IntPart())
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		label := name
		if label == "" {
			label = "(uncategorized)"
		}
		data.Rows = append(data.Rows, row{Name: label, Amount: formatAmount(groups[name]), Width: width})
	}

	html, err := s.renderToString("categories.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "categories.html")
		_, _ = w.Write([]byte(`<div class="error">Could not render categories</div>`))
		return
	}
	s.viewCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sessionID := s.sessions.sessionID(w, r)

	key := s.cacheKey(sessionID, "months", "")
	if html, ok := s.viewCache.Get(key); ok {
		_, _ = w.Write([]byte(html))
		return
	}

	unlock := s.sessions.lock(sessionID)
	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	unlock()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		_, _ = w.Write([]byte(`<div class="error">Could not load months</div>`))
		return
	}

	months := eng.ByMonth()
	keys := make([]core.YearMonth, 0, len(months))
	for ym := range months {
		keys = append(keys, ym)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})

	type row struct {
		Month   string
		Income  string
		Expense string
		Net     string
	}
	data := struct{ Rows []row }{}
	for _, ym := range keys {
		t := months[ym]
		data.Rows = append(data.Rows, row{
			Month:   ym.String(),
			Income:  formatAmount(t.Income),
			Expense: formatAmount(t.Expense),
			Net:     formatAmount(t.Net),
		})
	}

	html, err := s.renderToString("months.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "months.html")
		_, _ = w.Write([]byte(`<div class="error">Could not render months</div>`))
		return
	}
	s.viewCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessions.sessionID(w, r)

	unlock := s.sessions.lock(sessionID)
	eng, err := s.ledgers.LoadSession(r.Context(), sessionID)
	unlock()
	if err != nil {
		slog.ErrorContext(r.Context(), "Session load failed", "session_id", sessionID, "error", err)
		http.Error(w, "could not load ledger", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.csv", time.Now().Format("2006-01-02")))
	if err := export.Write(w, eng.ExportSnapshot()); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "session_id", sessionID, "error", err)
	}
}

func (s *Server) renderToString(name string, data any) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("templates not loaded")
	}
	var sb strings.Builder
	if err := s.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// cacheKey includes the session's mutation epoch, so invalidation is a
// counter bump and stale entries simply age out of the LRU.
func (s *Server) cacheKey(sessionID, view, variant string) string {
	return sessionID + ":" + strconv.FormatUint(s.epoch(sessionID), 10) + ":" + view + ":" + variant
}

func (s *Server) epoch(sessionID string) uint64 {
	if v, ok := s.epochs.Load(sessionID); ok {
		return v.(uint64)
	}
	return 0
}

func (s *Server) invalidateSession(sessionID string) {
	s.epochs.Store(sessionID, s.epoch(sessionID)+1)
}
