package rbac

import "github.com/warga-app/warga-server/internal/apperr"

var (
	// ErrCommunityNotFound is returned when the referenced community does not exist.
	ErrCommunityNotFound = apperr.New(apperr.KindNotFound, "community not found")

	// ErrRoleNotFound is returned when the referenced role does not exist in the community.
	ErrRoleNotFound = apperr.New(apperr.KindNotFound, "role not found")

	// ErrFlagNotFound is returned when the referenced permission flag does not exist.
	ErrFlagNotFound = apperr.New(apperr.KindNotFound, "permission flag not found")

	// ErrMembershipNotFound is returned when the target user has no membership in the community.
	ErrMembershipNotFound = apperr.New(apperr.KindNotFound, "membership not found")

	// ErrPermissionDenied is returned when the acting user lacks the required permission.
	ErrPermissionDenied = apperr.New(apperr.KindForbidden, "permission denied")

	// ErrOwnerRoleImmutable is returned on any attempt to mutate the owner role or its flags.
	ErrOwnerRoleImmutable = apperr.New(apperr.KindForbidden, "the owner role cannot be modified")

	// ErrOwnerNotReassignable is returned when trying to reassign a member holding the owner role.
	ErrOwnerNotReassignable = apperr.New(apperr.KindForbidden, "the owner role cannot be reassigned")

	// ErrSelfReassign is returned when the acting user tries to change their own role.
	ErrSelfReassign = apperr.New(apperr.KindForbidden, "cannot change your own role")

	// ErrMasterDisabled is returned when enabling a dependent flag while the
	// kelola_komunitas master switch is off.
	ErrMasterDisabled = apperr.New(apperr.KindForbidden, "kelola_komunitas must be enabled first")

	// ErrSameRole is returned when reassigning a member to the role they already hold.
	ErrSameRole = apperr.New(apperr.KindConflict, "member already holds this role")

	// ErrRoleNameRequired is returned when creating a role without a name.
	ErrRoleNameRequired = apperr.New(apperr.KindValidation, "role name is required")

	// ErrSlugExhausted is returned when slug disambiguation gives up after too
	// many collisions.
	ErrSlugExhausted = apperr.New(apperr.KindConflict, "could not find a free role slug")
)
