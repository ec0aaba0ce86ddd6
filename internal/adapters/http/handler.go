package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/PabloGalante/justiceconnect/internal/app/account"
	"github.com/PabloGalante/justiceconnect/internal/app/catalog"
	"github.com/PabloGalante/justiceconnect/internal/app/conversation"
	"github.com/PabloGalante/justiceconnect/internal/domain"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

type Options struct {
	// BasePath prefixes every route, e.g. "/make-server-a76efa1a".
	BasePath    string
	ServiceName string
	// VerifyOwner requires /chat requests carrying a userId to present a
	// bearer credential for that same user.
	VerifyOwner bool
}

type Server struct {
	chat     *conversation.Service
	accounts *account.Service
	catalog  *catalog.Catalog
	opts     Options
}

func NewServer(chat *conversation.Service, accounts *account.Service, cat *catalog.Catalog, opts Options) http.Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "JusticeConnect server"
	}
	s := &Server{chat: chat, accounts: accounts, catalog: cat, opts: opts}

	r := mux.NewRouter()
	api := r
	if base := strings.TrimRight(opts.BasePath, "/"); base != "" {
		api = r.PathPrefix(base).Subrouter()
	}

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/signup", s.handleSignUp).Methods(http.MethodPost)
	api.HandleFunc("/signin", s.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/signout", s.handleSignOut).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/{chatId}", s.handleDeleteChat).Methods(http.MethodDelete)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/quick-actions", s.handleQuickActions).Methods(http.MethodGet)

	for _, rt := range []*mux.Router{r, api} {
		rt.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		})
		rt.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			methodNotAllowed(w)
		})
	}

	return chainMiddlewares(r, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signUpResponse struct {
	Success bool                `json:"success"`
	User    *domain.UserProfile `json:"user"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []domain.Message `json:"conversationHistory"`
	Language            string           `json:"language"`
	UserID              string           `json:"userId,omitempty"`
	ChatID              string           `json:"chatId,omitempty"`
}

type chatResponse struct {
	Message             string           `json:"message"`
	ConversationHistory []domain.Message `json:"conversationHistory"`
}

type historyResponse struct {
	Chats []*domain.Session `json:"chats"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type quickActionsResponse struct {
	Language           domain.Language       `json:"language"`
	Actions            []catalog.QuickAction `json:"actions"`
	SuggestedQuestions []string              `json:"suggestedQuestions"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: s.opts.ServiceName + " is running",
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	user, err := s.accounts.SignUp(r.Context(), account.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, signUpResponse{Success: true, User: user})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	session, err := s.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.SignOut(r.Context(), r.Header.Get("Authorization")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "Message is required")
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	history, err := domain.ParseMessages(req.ConversationHistory)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	userID := domain.UserID(strings.TrimSpace(req.UserID))
	if s.opts.VerifyOwner && userID != "" {
		caller, err := s.accounts.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if caller != userID {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
	}

	out, err := s.chat.SendMessage(r.Context(), conversation.SendMessageInput{
		Message:  req.Message,
		History:  history,
		Language: lang,
		UserID:   userID,
		ChatID:   domain.SessionID(strings.TrimSpace(req.ChatID)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:             out.Message,
		ConversationHistory: out.History,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner, err := s.accounts.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	chats, err := s.chat.ListHistory(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if chats == nil {
		chats = []*domain.Session{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Chats: chats})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	owner, err := s.accounts.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	chatID := domain.SessionID(mux.Vars(r)["chatId"])
	if err := s.chat.DeleteChat(r.Context(), owner, chatID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleQuickActions(w http.ResponseWriter, r *http.Request) {
	lang, err := domain.ParseLanguage(r.URL.Query().Get("language"))
	if err != nil {
		lang = domain.DefaultLanguage
	}

	writeJSON(w, http.StatusOK, quickActionsResponse{
		Language:           lang,
		Actions:            s.catalog.QuickActionsFor(lang),
		SuggestedQuestions: s.catalog.Suggestions(),
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

// writeError maps the domain error taxonomy onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	var (
		invalid  *domain.InvalidRequestError
		upstream *domain.UpstreamError
		cfgErr   *domain.ConfigurationError
		persist  *domain.PersistenceError
	)

	switch {
	case errors.As(err, &invalid):
		badRequest(w, invalid.Reason)

	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})

	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		log.Error("upstream failure", "provider", upstream.Provider, "status", status, "error", err)
		writeJSON(w, status, errorResponse{
			Error:   fmt.Sprintf("Failed to get response from %s", upstream.Provider),
			Details: upstream.Detail,
		})

	case errors.As(err, &cfgErr):
		log.Error("configuration error", "setting", cfgErr.Setting, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: cfgErr.Message})

	case errors.As(err, &persist):
		log.Error("history store failure", "op", persist.Op, "key", persist.Key, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Details: persist.Error(),
		})

	default:
		log.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
	}
}
