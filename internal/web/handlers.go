package web

import (
	"encoding/json"
	"net/http"

	"github.com/arnaubm/noise-trader/internal/storage"
)

type StatusResponse struct {
	Ticker     string  `json:"ticker"`
	Mode       string  `json:"mode"`
	FreeBudget float64 `json:"free_budget"`
	BudgetLeft float64 `json:"budget_left"`
	SpentDay   float64 `json:"spent_day"`
	SpentWeek  float64 `json:"spent_week"`
	OpenTrades int     `json:"open_trades"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Ticker: s.config.Trading.Ticker,
		Mode:   "LIVE",
	}
	if s.config.IsSandbox() {
		resp.Mode = "SANDBOX"
	}

	if snapshot, err := s.repo.GetLatestSnapshot(); err == nil && snapshot != nil {
		resp.FreeBudget = snapshot.FreeBudget
		resp.BudgetLeft = snapshot.BudgetLeft
		resp.SpentDay = snapshot.SpentDay
		resp.SpentWeek = snapshot.SpentWeek
		resp.OpenTrades = snapshot.OpenTrades
	}

	s.writeJSON(w, resp)
}

type TradesResponse struct {
	Open   []storage.Trade `json:"open"`
	Recent []storage.Trade `json:"recent"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	resp := TradesResponse{}
	if open, err := s.repo.GetOpenTrades(); err == nil {
		resp.Open = open
	}
	if recent, err := s.repo.GetRecentTrades(20); err == nil {
		resp.Recent = recent
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.metrics.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
