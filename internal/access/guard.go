// Package access decides read/write permission for visibility-scoped
// resources. It is pure: no I/O, no storage lookups.
package access

import (
	"github.com/eventa-io/eventa-server/internal/model"
	"github.com/google/uuid"
)

// CanRead reports whether the principal may read a resource with the
// given author and visibility. Principal may be nil (anonymous).
//
// Private resources are readable by their author only; any other reader
// gets ErrNotFound rather than ErrForbidden so that the existence of the
// resource is not leaked.
func CanRead(principal *model.Principal, authorID uuid.UUID, visibility model.Visibility) error {
	switch visibility {
	case model.VisibilityPublic, model.VisibilityInvisible:
		// Invisible only differs from public by being excluded from
		// listings; the listing query enforces that, not the guard.
		return nil
	case model.VisibilityPrivate:
		if principal != nil && principal.UserID == authorID {
			return nil
		}
		return model.ErrNotFound
	default:
		return model.ErrNotFound
	}
}

// CanWrite reports whether the principal may mutate a resource with the
// given author. Only the author may write.
func CanWrite(principal *model.Principal, authorID uuid.UUID) error {
	if principal == nil {
		return model.ErrForbidden
	}
	if principal.UserID != authorID {
		return model.ErrForbidden
	}
	return nil
}
