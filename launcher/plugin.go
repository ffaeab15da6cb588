package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/log"
)

// Plugin actions callable from the web application.
const (
	ActionIsSignedIn        = "isSignedIn"
	ActionSetSignedInStatus = "setSignedInStatus"
)

// Result is the outcome of a plugin action. Handled is false for unknown actions
// and for failed ones, which also carry the error message in Err.
type Result struct {
	Handled bool
	Value   interface{}
	Err     string
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return r.Handled && r.Err == ""
}

// Execute dispatches a plugin action. args is the JSON array passed by the web application.
func (h Host) Execute(action string, args json.RawMessage) Result {
	var err error
	switch action {
	case ActionIsSignedIn:
		var signedIn bool
		signedIn, err = h.signedIn.Get()
		if err == nil {
			value := 0
			if signedIn {
				value = 1
			}
			return Result{Handled: true, Value: value}
		}
	case ActionSetSignedInStatus:
		var status bool
		status, err = boolArg(args, 0)
		if err == nil {
			err = h.signedIn.Set(status)
		}
		if err == nil {
			return Result{Handled: true}
		}
	default:
		return Result{}
	}

	log.Errorf("Error executing %s: %s", action, err)
	return Result{Handled: false, Err: err.Error()}
}

func boolArg(args json.RawMessage, index int) (bool, error) {
	if len(strings.TrimSpace(string(args))) == 0 {
		return false, errors.New("missing arguments")
	}

	var values []json.RawMessage
	if err := json.Unmarshal(args, &values); err != nil {
		return false, fmt.Errorf("arguments are not a JSON array: %w", err)
	}
	if index >= len(values) {
		return false, fmt.Errorf("JSONArray[%d] not found", index)
	}

	var value bool
	if err := json.Unmarshal(values[index], &value); err != nil {
		return false, fmt.Errorf("JSONArray[%d] is not a boolean", index)
	}
	return value, nil
}
