package gateway

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response wrapper both backends use. Some backend
// versions answer with the payload bare, without the wrapper; decoding
// handles both shapes so callers only ever see the data.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// decodeEnvelope normalizes a response body and unmarshals its data into
// out. A body carrying success=false becomes a StatusError with the
// server message.
func decodeEnvelope(service Service, raw []byte, out any) error {
	data := json.RawMessage(raw)

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil {
		if !*env.Success {
			msg := env.Message
			if msg == "" {
				msg = "request failed"
			}
			return &StatusError{Service: service, Status: http.StatusOK, Message: msg}
		}
		data = env.Data
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// serverMessage extracts the server-provided message from an error response
// body, if one is present.
func serverMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}

	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain.Error
	}
	return ""
}
