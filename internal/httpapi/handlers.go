package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error is a failed API call. Msg comes from the server's {"msg": "..."} body.
type Error struct {
	Status     int
	StatusText string
	Msg        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Msg)
}

type errorBody struct {
	Msg string `json:"msg"`
}

// handleResponse turns a response into either a decoded body or an *Error. out may be
// nil for endpoints without a useful body.
func handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Msg: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Msg: "Unknown error"}
		var body errorBody
		if json.Unmarshal(data, &body) == nil && body.Msg != "" {
			apiErr.Msg = body.Msg
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Msg: err.Error()}
	}
	return nil
}
