package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/robinvdvleuten/ledger/journal"
	"github.com/robinvdvleuten/ledger/session"
)

// writeJSON encodes data as the response body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeResponse maps a session response to a status code: failed commands
// are unprocessable, the request itself was fine.
func writeResponse(w http.ResponseWriter, resp session.Response) {
	status := http.StatusOK
	if !resp.OK() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// InfoResponse describes the server.
type InfoResponse struct {
	Version string   `json:"version"`
	Files   []string `json:"files"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	files := append([]string{}, s.sources...)
	s.mu.Unlock()

	version := s.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, &InfoResponse{Version: version, Files: files})
}

// handleQuery runs the select statement in the q parameter. The leading
// "select" keyword is optional.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}
	if len(q) >= 6 && strings.EqualFold(q[:6], "select") {
		q = strings.TrimSpace(q[6:])
	}
	writeResponse(w, s.execute(r.Context(), []string{"select", q}))
}

// CommandRequest is the body of POST /api/command. Args takes precedence
// over Line, which is split like a REPL line.
type CommandRequest struct {
	Args []string `json:"args"`
	Line string   `json:"line"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	args := req.Args
	if len(args) == 0 {
		var err error
		if args, err = session.SplitArguments(req.Line); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if len(args) == 0 {
		http.Error(w, "missing command", http.StatusBadRequest)
		return
	}
	writeResponse(w, s.execute(r.Context(), args))
}

// AccountInfo is one account of the journal.
type AccountInfo struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
	Posts int    `json:"posts"`
}

// AccountsResponse is the body of GET /api/accounts.
type AccountsResponse struct {
	Accounts []AccountInfo `json:"accounts"`
}

// handleAccounts lists every account in tree order.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]AccountInfo, 0)
	master := s.session.Journal.Master
	_ = master.Walk(func(acct *journal.Account) error {
		if acct != master {
			accounts = append(accounts, AccountInfo{
				Name:  acct.FullName(),
				Depth: acct.Depth(),
				Posts: len(acct.Posts()),
			})
		}
		return nil
	})
	writeJSON(w, http.StatusOK, &AccountsResponse{Accounts: accounts})
}

// handleSSE streams reload events until the client goes away.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.subscribe()
	defer s.unsubscribe(events)

	_, _ = fmt.Fprint(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) subscribe() chan string {
	events := make(chan string, 10)
	s.sseMu.Lock()
	s.sseClients[events] = struct{}{}
	s.sseMu.Unlock()
	return events
}

func (s *Server) unsubscribe(events chan string) {
	s.sseMu.Lock()
	delete(s.sseClients, events)
	s.sseMu.Unlock()
}

// broadcast sends event to every client, skipping those that fall behind.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for events := range s.sseClients {
		select {
		case events <- event:
		default:
		}
	}
}
