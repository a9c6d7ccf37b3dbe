package models

// GroupMember links a user to a private group. Membership authorizes
// group-scoped posting and bounds the private notification audience.
type GroupMember struct {
	UserID  string `db:"user_id" json:"user_id"`
	GroupID string `db:"group_id" json:"group_id"`
}
