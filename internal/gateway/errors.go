package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
)

// statusFor maps an apperr.Kind to the HTTP status the gateway replies with.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRefused:
		return http.StatusForbidden
	case apperr.KindTimeout:
		return http.StatusGatewayTimeout
	case apperr.KindCancelled:
		return 499 // client closed request, matching the teacher's convention for aborted streams
	case apperr.KindBackpressure:
		return http.StatusTooManyRequests
	case apperr.KindBudgetExhausted:
		return http.StatusUnprocessableEntity
	case apperr.KindTransport, apperr.KindProtocol:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(kind))
	_ = json.NewEncoder(w).Encode(errorBody{Kind: string(kind), Message: err.Error()})
}
