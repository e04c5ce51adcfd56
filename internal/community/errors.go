package community

import "github.com/warga-app/warga-server/internal/apperr"

var (
	// ErrNotFound is returned when the referenced community does not exist.
	ErrNotFound = apperr.New(apperr.KindNotFound, "community not found")

	// ErrMembershipNotFound is returned when the target user has no membership row.
	ErrMembershipNotFound = apperr.New(apperr.KindNotFound, "membership not found")

	// ErrAlreadyMember is returned when joining a community twice.
	ErrAlreadyMember = apperr.New(apperr.KindConflict, "already a member of this community")

	// ErrNotPending is returned when approving or rejecting a membership that is not pending.
	ErrNotPending = apperr.New(apperr.KindConflict, "membership is not pending")

	// ErrPermissionDenied is returned when the acting user lacks the required permission.
	ErrPermissionDenied = apperr.New(apperr.KindForbidden, "permission denied")

	// ErrOwnerProtected is returned when kicking the owner or when the owner tries to leave.
	ErrOwnerProtected = apperr.New(apperr.KindForbidden, "the community owner cannot be removed")

	// ErrSlugTaken is returned when the requested community slug is already in use.
	ErrSlugTaken = apperr.New(apperr.KindConflict, "community slug already taken")

	// ErrSlugRateLimited is returned when the slug was already changed within
	// the last seven days.
	ErrSlugRateLimited = apperr.New(apperr.KindConflict, "slug can only be changed once per week")

	// ErrInvalidSlug is returned when the slug contains characters outside [a-z0-9-].
	ErrInvalidSlug = apperr.New(apperr.KindValidation, "invalid community slug")

	// ErrNameRequired is returned when creating a community without a name.
	ErrNameRequired = apperr.New(apperr.KindValidation, "community name is required")
)
