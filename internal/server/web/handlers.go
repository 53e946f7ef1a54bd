package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/cvewatch/internal/common"
	"github.com/dmitrijs2005/cvewatch/internal/server/services"
	"github.com/gorilla/mux"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ingestResponse struct {
	Message string                 `json:"message"`
	Summary services.IngestSummary `json:"summary"`
}

type keywordResponse struct {
	Message string `json:"message,omitempty"`
	Keyword string `json:"keyword"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	token, _, err := s.users.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// handleIngest runs one ingestion with the keyword from the form, or the
// current default when the form has none. The run is detached from client
// cancellation so a started fetch or upsert always completes.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	keyword := s.settings.Keyword()
	if err := r.ParseForm(); err == nil && r.Form.Has("keyword") {
		keyword = r.Form.Get("keyword")
	}

	summary, err := s.ingester.Run(context.WithoutCancel(r.Context()), keyword)
	if err != nil {
		s.logger.Error(r.Context(), "ingestion failed", "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusBadGateway, "Failed to fetch CVE data")
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Message: "CVE data ingested", Summary: summary})
}

func (s *Server) handleGetKeyword(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, keywordResponse{Keyword: s.settings.Keyword()})
}

func (s *Server) handleSetKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := r.FormValue("keyword")
	s.settings.SetKeyword(keyword)
	s.logger.Info(r.Context(), "keyword changed", "keyword", keyword, "by", claimsFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, keywordResponse{Message: "Keyword updated", Keyword: keyword})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	isAdmin, _ := strconv.ParseBool(r.FormValue("admin"))

	u, err := s.users.Register(r.Context(), username, password, isAdmin)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]any{"message": "User created", "username": u.UserName, "admin": u.IsAdmin})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, common.ErrorInvalidLogin), errors.Is(err, common.ErrorEmptyPassword):
		writeError(w, http.StatusBadRequest, "Username and password are required")
	default:
		s.logger.Error(r.Context(), "create user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.FormValue("search_term")
	column := r.FormValue("column")

	rows, err := s.vulns.Search(r.Context(), column, term)
	if err != nil {
		if errors.Is(err, common.ErrInvalidColumn) {
			writeError(w, http.StatusBadRequest, "Invalid search column")
			return
		}
		s.internalError(w, r, "search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	rows, err := s.vulns.Sorted(r.Context(), mux.Vars(r)["column"])
	if err != nil {
		if errors.Is(err, common.ErrInvalidColumn) {
			writeError(w, http.StatusBadRequest, "Invalid sort attribute")
			return
		}
		s.internalError(w, r, "sort failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.vulns.All(r.Context())
	if err != nil {
		s.internalError(w, r, "list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.vulns.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		s.internalError(w, r, "get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(r.Context(), msg, "request_id", requestIDFrom(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}
