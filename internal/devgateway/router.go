package devgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/internal/app/gateway"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Router returns the HTTP API under /api, matching the paths the engine's
// HTTP gateway client calls.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	auth := api.NewRoute().Subrouter()
	auth.Use(s.authMiddleware)
	auth.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	auth.HandleFunc("/rewardtier", s.handleRewardTier).Methods(http.MethodGet)
	auth.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	auth.HandleFunc("/earn", s.handleEarn).Methods(http.MethodPost)
	auth.HandleFunc("/redeem", s.handleRedeem).Methods(http.MethodPost)

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			jsonError(w, http.StatusUnauthorized, "Missing authorization")
			return
		}
		userID, err := s.validateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "devgateway",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile, token, err := s.login(creds)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.AuthResult{User: profile, Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg session.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile, token, err := s.register(reg)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gateway.AuthResult{User: profile, Token: token})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.balance(userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) handleRewardTier(w http.ResponseWriter, r *http.Request) {
	balance, tier, err := s.rewardTier(userID(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.TierSnapshot{Balance: balance, RewardTier: tier})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	page, next, err := s.historyPage(userID(r), r.URL.Query().Get("cursor"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.HistoryPage{Transactions: page, Cursor: next})
}

func (s *Server) handleEarn(w http.ResponseWriter, r *http.Request) {
	var req gateway.EarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	balance, tier, tx, err := s.earn(userID(r), req.Amount, req.Description)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.MutationResult{Balance: balance, RewardTier: &tier, Transaction: tx})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req gateway.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	balance, tier, tx, err := s.redeem(userID(r), req.Points, req.Description, req.RewardTierID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gateway.MutationResult{Balance: balance, RewardTier: &tier, Transaction: tx})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// jsonError writes the failure body the client expects: an optional
// human-readable message under the "message" key.
func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeErr(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		jsonError(w, apiErr.status, apiErr.message)
		return
	}
	jsonError(w, http.StatusInternalServerError, "Internal error")
}
