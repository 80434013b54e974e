package util

import (
	"github.com/rs/xid"
)

// GenJobID generates a job ID string.
// IDs are globally unique and sortable.
func GenJobID() string {
	id := xid.New()
	return id.String()
}
