package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/raspadomilhao/raspay-sub003/internal/apperr"
)

func writeError(w http.ResponseWriter, kind apperr.Kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(kind))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"kind":  string(kind),
	})
}
