package scheduler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// newRunID mints a sortable, collision-resistant run identifier, grounded on
// this stack's time-prefixed random-suffix run ID scheme so run IDs sort
// chronologically in logs and the debug server's listings.
func newRunID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("run-%s-%s", time.Now().UTC().Format("20060102T150405"), hex.EncodeToString(b))
}
