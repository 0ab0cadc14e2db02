package cargo_api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, status bool, message string, data, errs any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errs,
	})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, true, "success", data, nil)
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, true, "created", data, nil)
}

func badRequest(w http.ResponseWriter, message string, errs any) {
	writeJSON(w, http.StatusBadRequest, false, message, nil, errs)
}
