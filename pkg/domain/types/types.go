package types

import (
	"fmt"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// UserID is the numeric user identifier issued by the external identity service
type UserID int64

// LectureID identifies a lecture workspace. Valid IDs start at 1.
type LectureID int64

// Validate checks if the lecture ID is within the valid range
func (id LectureID) Validate() error {
	if id < 1 {
		return goerr.New("lecture ID must be 1 or greater", goerr.V("lecture_id", int64(id)))
	}
	return nil
}

// GuestID is the opaque identifier a guest client issues for itself.
// It is a bearer capability, not a verified identity.
type GuestID string

var guestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks if the guest ID is non-empty and uses a safe character set
func (id GuestID) Validate() error {
	if id == "" {
		return goerr.New("guest ID is required")
	}
	if !guestIDPattern.MatchString(string(id)) {
		return goerr.New("guest ID contains invalid characters", goerr.V("guest_id", string(id)))
	}
	return nil
}

// String returns the string representation of the guest ID
func (id GuestID) String() string {
	return string(id)
}

// CollectionKey is the isolation boundary of the vector store.
// One collection exists per tenant: a lecture workspace or a guest session.
type CollectionKey string

// LectureCollection returns the collection key for a lecture workspace
func LectureCollection(id LectureID) CollectionKey {
	return CollectionKey(fmt.Sprintf("lecture_%d", id))
}

// GuestCollection returns the collection key for a guest session
func GuestCollection(id GuestID) CollectionKey {
	return CollectionKey("guest_" + string(id))
}

// String returns the string representation of the collection key
func (k CollectionKey) String() string {
	return string(k)
}
