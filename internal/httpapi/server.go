// Package httpapi is the thin REST mapping of spec.md §6's endpoint table
// onto Orchestrator operations. Grounded on kshinn-umbra-gateway's gateway,
// which wires net/http's ServeMux and http.ListenAndServe directly rather
// than a third-party router (see DESIGN.md).
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourusername/ethsettle/internal/engine"
)

// Server wires the orchestrator's operations onto the endpoint table.
type Server struct {
	Orchestrator *engine.Orchestrator
	Log          *slog.Logger
	mux          *http.ServeMux
}

func NewServer(o *engine.Orchestrator, log *slog.Logger) *Server {
	s := &Server{Orchestrator: o, Log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /accounts/{id}", s.handleCreateAccount)
	s.mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	s.mux.HandleFunc("POST /accounts/{id}/settlement", s.handleSendMoney)
	s.mux.HandleFunc("POST /accounts/{id}/messages", s.handleReceiveMessage)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func parseAccountID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func idempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Idempotency-Key"))
}

func writeResult(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	w.Write(body)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(r)
	if !ok {
		writeResult(w, 400, []byte("Unable to parse account"))
		return
	}
	body, _ := readBody(r)
	status, resp := s.Orchestrator.CreateAccount(r.Context(), id, body, idempotencyKey(r))
	s.logOutcome(r.Context(), "create_account", id, status)
	writeResult(w, status, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(r)
	if !ok {
		writeResult(w, 400, []byte("Unable to parse account"))
		return
	}
	status, resp := s.Orchestrator.GetAccount(r.Context(), id)
	writeResult(w, status, resp)
}

func (s *Server) handleSendMoney(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(r)
	if !ok {
		writeResult(w, 400, []byte("Unable to parse account"))
		return
	}
	body, _ := readBody(r)
	status, resp := s.Orchestrator.SendMoney(r.Context(), id, body, idempotencyKey(r))
	s.logOutcome(r.Context(), "send_money", id, status)
	writeResult(w, status, resp)
}

func (s *Server) handleReceiveMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAccountID(r)
	if !ok {
		writeResult(w, 400, []byte("Unable to parse account"))
		return
	}
	body, _ := readBody(r)
	status, resp := s.Orchestrator.ReceiveMessage(r.Context(), id, body, idempotencyKey(r))
	s.logOutcome(r.Context(), "receive_message", id, status)
	writeResult(w, status, resp)
}

func (s *Server) logOutcome(ctx context.Context, op string, accountID uint64, status int) {
	s.Log.Info("settlement operation", "op", op, "account_id", accountID, "status", status)
}
