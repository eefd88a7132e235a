package view

import (
	"strconv"
	"strings"
)

type Action string

const (
	ActionIncrement Action = "increment"
	ActionDecrement Action = "decrement"
	ActionRemove    Action = "remove"
)

// Control identifies which button of the widget was activated. Every button
// submits the same form field, so one endpoint handles all of them.
type Control struct {
	Action    Action
	ProductID int64
}

// ControlValue encodes a control as "<action>:<product id>".
func ControlValue(action Action, productID int64) string {
	return string(action) + ":" + strconv.FormatInt(productID, 10)
}

// ParseControl decodes a value produced by ControlValue. Anything else,
// including a non-numeric product id, is rejected.
func ParseControl(value string) (Control, bool) {
	action, id, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return Control{}, false
	}

	switch Action(action) {
	case ActionIncrement, ActionDecrement, ActionRemove:
	default:
		return Control{}, false
	}

	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Control{}, false
	}
	return Control{Action: Action(action), ProductID: productID}, true
}
