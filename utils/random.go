package utils

import (
	"github.com/google/uuid"
)

// NewSessionID returns "<prefix>-<uuid>", used to name the channels a
// presenter session talks on.
func NewSessionID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
