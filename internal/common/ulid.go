package common

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
