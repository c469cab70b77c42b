package memberdb

import "fmt"

// MemberExistsError is returned by the create operations when the
// target discord id is already linked to a member. The existing
// member's id is carried for caller diagnostics.
type MemberExistsError struct {
	Member MemberID
}

func (e *MemberExistsError) Error() string {
	return fmt.Sprintf("member already exists with id %d", e.Member)
}

// WrongMemberTypeError is returned when an operation is not legal for
// the member's current type, e.g. unbinding the sole wynn link of a
// guild partial.
type WrongMemberTypeError struct {
	Type MemberType
}

func (e *WrongMemberTypeError) Error() string {
	return fmt.Sprintf("wrong member type %q", string(e.Type))
}

// LinkOverrideError is returned when an operation would silently steal
// a profile that is already linked to another member.
type LinkOverrideError struct {
	Profile  ProfileType
	Existing MemberID
}

func (e *LinkOverrideError) Error() string {
	return fmt.Sprintf("%s profile is already linked to member %d", string(e.Profile), e.Existing)
}
