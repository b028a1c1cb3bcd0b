package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/core/service"
)

const maxRequestBody = 1 << 20

type HTTPHandler struct {
	simulator *service.Simulator
	symbol    string
	log       *zap.Logger
}

func NewHTTPHandler(simulator *service.Simulator, symbol string, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{simulator: simulator, symbol: symbol, log: log}
}

func (h *HTTPHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SimulateResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.Input == "" {
		writeJSON(w, http.StatusBadRequest, SimulateResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}

	rep, err := h.simulator.Simulate(r.Context(), service.SimulateRequest{
		RequestID: req.RequestID,
		Input:     req.Input,
		Lenient:   req.Lenient,
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, domain.ErrMalformedInput) {
			status = http.StatusBadRequest
			message = err.Error()
		} else if errors.Is(err, service.ErrDuplicateRequest) {
			status = http.StatusConflict
			message = "duplicate request"
		} else {
			h.log.Error("simulation failed", zap.String("request_id", req.RequestID), zap.Error(err))
		}

		writeJSON(w, status, SimulateResponse{
			Success: false,
			Message: message,
		})
		return
	}

	writeJSON(w, http.StatusOK, newSimulateResponse(rep, h.symbol))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
