package gateway

import (
	"encoding/json"
	"fmt"
)

// envelope is the response wrapper shared by every Bot API method.
type envelope struct {
	OK          *bool           `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// decodeResult unwraps the envelope of a 2xx response into out.
// An explicit ok:false, a missing result or a result of the wrong shape is
// reported as a protocol failure carrying the response status.
func decodeResult(method Method, status int, raw json.RawMessage, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Method: method, StatusCode: status, Message: fmt.Sprintf("%s returned an unexpected response: %v", method, err)}
	}
	if env.OK != nil && !*env.OK {
		detail := env.Description
		if detail == "" {
			detail = string(raw)
		}
		return statusError(method, status, detail)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &Error{Method: method, StatusCode: status, Message: fmt.Sprintf("%s returned no result", method)}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &Error{Method: method, StatusCode: status, Message: fmt.Sprintf("%s returned an unexpected result: %v", method, err)}
	}
	return nil
}
