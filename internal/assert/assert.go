package assert

import (
	"fmt"
)

// Length panics when value is not exactly expected bytes long
func Length(value string, expected int) {
	if len(value) != expected {
		msg := fmt.Sprintf("assert.Length expected %d actual %d", expected, len(value))
		panic(msg)
	}
}

// NotEmpty panics when value is empty. name identifies the value in the message.
func NotEmpty(name, value string) {
	if value == "" {
		panic(fmt.Sprintf("assert.NotEmpty %s is empty", name))
	}
}
