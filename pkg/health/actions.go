package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// ActionRunner starts claim and donate actions. When the status source passed
// to NewServer implements it, the server exposes POST /actions/claim and
// POST /actions/donate.
type ActionRunner interface {
	StatusSource
	Busy() bool
	Claim(ctx context.Context, in executor.ClaimInput) (models.TxResult, error)
	Donate(ctx context.Context, in executor.DonateInput) (models.TxResult, error)
}

type claimRequest struct {
	Score    *int64 `json:"score"`
	Message  string `json:"message"`
	PhotoURL string `json:"photo_url"`
}

type donateRequest struct {
	Amount string `json:"amount"`
	Asset  string `json:"asset"`
	RuneID string `json:"rune_id"`
}

// requireAPIKey refuses the request when no API key is configured
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.MetricsAPIKey == "" {
			http.Error(w, "Actions require METRICS_API_KEY to be set", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleClaim(runner ActionRunner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req claimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		if req.Score == nil {
			http.Error(w, "score is required", http.StatusBadRequest)
			return
		}

		in := executor.ClaimInput{Score: *req.Score, Message: req.Message, PhotoURL: req.PhotoURL}
		s.startAction(w, runner, models.ActionClaim, func(ctx context.Context) (models.TxResult, error) {
			return runner.Claim(ctx, in)
		})
	})
}

func (s *Server) handleDonate(runner ActionRunner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req donateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		amount, err := models.ParseUnits(req.Amount, models.TokenDecimals)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid amount %q: %v", req.Amount, err), http.StatusBadRequest)
			return
		}
		asset := s.opts.DonationAsset
		if req.Asset != "" {
			if !common.IsHexAddress(req.Asset) {
				http.Error(w, fmt.Sprintf("Invalid asset address %q", req.Asset), http.StatusBadRequest)
				return
			}
			asset = common.HexToAddress(req.Asset)
		}
		runeID := s.opts.DonationRuneID
		if strings.TrimSpace(req.RuneID) != "" {
			runeID = req.RuneID
		}

		in := executor.DonateInput{Amount: amount, Asset: asset, RuneID: runeID}
		s.startAction(w, runner, models.ActionDonate, func(ctx context.Context) (models.TxResult, error) {
			return runner.Donate(ctx, in)
		})
	})
}

// startAction runs the action in the background and answers 202, or 409 while
// another action is in flight. Progress is reported by /status.
func (s *Server) startAction(w http.ResponseWriter, runner ActionRunner, action models.Action, run func(context.Context) (models.TxResult, error)) {
	if runner.Busy() {
		http.Error(w, executor.ErrActionInFlight.Error(), http.StatusConflict)
		return
	}

	s.actionsGroup.Add(1)
	go func() {
		defer s.actionsGroup.Done()
		result, err := run(s.actionCtx)
		switch {
		case errors.Is(err, executor.ErrActionInFlight):
			s.logger.Notice("%s not started: %v", action, err)
		case err != nil:
			s.logger.Error("%s failed: %v", action, err)
		default:
			s.logger.Info("%s succeeded: base tx %s, execution tx %s", action, result.BaseTxID, result.ExecutionTxHash.Hex())
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"action":   action,
		"accepted": true,
	}); err != nil {
		s.logger.Error("Error encoding JSON response: %v", err)
	}
}
