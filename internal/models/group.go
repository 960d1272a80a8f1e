package models

// CreateGroupRequest creates a group conversation owned by the caller.
type CreateGroupRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,required"`
}
