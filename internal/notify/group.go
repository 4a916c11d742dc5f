package notify

import (
	"fmt"

	"github.com/google/uuid"
)

// groupKind discriminates the GroupID variants.
type groupKind uint8

const (
	groupKindUser groupKind = iota + 1
	groupKindAdmin
)

// GroupID is a typed fan-out target: either a single user's personal group or
// the shared admin broadcast group. Using a comparable struct instead of an
// interpolated string key removes any chance of key collisions between the
// two namespaces.
type GroupID struct {
	kind   groupKind
	userID uuid.UUID
}

// PerUser returns the group that carries events about tasks owned by the
// given user.
func PerUser(userID uuid.UUID) GroupID {
	return GroupID{kind: groupKindUser, userID: userID}
}

// AdminBroadcast returns the group that receives every task event, joined by
// staff and superuser connections.
func AdminBroadcast() GroupID {
	return GroupID{kind: groupKindAdmin}
}

// IsZero reports whether the GroupID is the zero value (no variant chosen).
func (g GroupID) IsZero() bool {
	return g.kind == 0
}

// String renders the group for logs. The wire protocol never carries group
// names; this exists only for observability.
func (g GroupID) String() string {
	switch g.kind {
	case groupKindUser:
		return fmt.Sprintf("user_%s", g.userID)
	case groupKindAdmin:
		return "admin_group"
	default:
		return "unknown_group"
	}
}
