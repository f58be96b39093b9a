package qdrant

import (
	"github.com/tidwall/gjson"
)

// envelope is the wrapper of every REST response:
// {"result": ..., "status": "ok" | {"error": "..."}, "time": 0.001}.
type envelope struct {
	Result gjson.Result
	Time   float64
}

// decodeEnvelope parses data and fails with *APIError when the status is not ok.
func decodeEnvelope(data []byte) (envelope, error) {
	root, err := parseRaw(data)
	if err != nil {
		return envelope{}, err
	}
	if !root.IsObject() {
		return envelope{}, malformed(root.Raw, "response is not an object")
	}
	if err := statusError(root.Get("status"), 0); err != nil {
		return envelope{}, err
	}
	return envelope{Result: root.Get("result"), Time: root.Get("time").Num}, nil
}

// statusError turns a non-ok status value into an *APIError.
func statusError(status gjson.Result, code int) error {
	switch {
	case !status.Exists(), status.Type == gjson.Null:
		return nil
	case status.Type == gjson.String:
		if status.Str == "ok" {
			return nil
		}
		return &APIError{StatusCode: code, Message: status.Str}
	case status.IsObject():
		if msg := status.Get("error"); msg.Exists() {
			return &APIError{StatusCode: code, Message: msg.String()}
		}
		return &APIError{StatusCode: code, Message: status.Raw}
	default:
		return &APIError{StatusCode: code, Message: status.Raw}
	}
}

// errorFromBody builds the error for a non-2xx HTTP response, using the
// status message of the body when it has one.
func errorFromBody(code int, body []byte) error {
	if gjson.ValidBytes(body) {
		if err := statusError(gjson.GetBytes(body, "status"), code); err != nil {
			return err
		}
	}
	msg := string(body)
	if msg == "" {
		msg = "empty response"
	}
	return &APIError{StatusCode: code, Message: truncateRaw(msg)}
}
