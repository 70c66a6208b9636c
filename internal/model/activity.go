package model

import "time"

// Action is the closed set of security- and business-relevant events
// recorded in the audit log.  Values are stable wire identifiers; new
// actions are appended here and matched exhaustively at call sites.
type Action string

const (
	ActionCreateVendor     Action = "CREATE_VENDOR"
	ActionUpdateVendor     Action = "UPDATE_VENDOR"
	ActionDeleteVendor     Action = "DELETE_VENDOR"
	ActionCreateInventory  Action = "CREATE_INVENTORY"
	ActionUpdateInventory  Action = "UPDATE_INVENTORY"
	ActionDeleteInventory  Action = "DELETE_INVENTORY"
	ActionCreateUser       Action = "CREATE_USER"
	ActionLoginUser        Action = "LOGIN_USER"
	ActionLogoutUser       Action = "LOGOUT_USER"
	ActionChangePassword   Action = "CHANGE_PASSWORD"
	ActionUpdateUserAvatar Action = "UPDATE_USER_AVATAR"
	ActionUpdateUserRole   Action = "UPDATE_USER_ROLE"
	ActionDeleteUser       Action = "DELETE_USER"
)

// ParseAction reports whether s names a known audit action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionCreateVendor, ActionUpdateVendor, ActionDeleteVendor,
		ActionCreateInventory, ActionUpdateInventory, ActionDeleteInventory,
		ActionCreateUser, ActionLoginUser, ActionLogoutUser,
		ActionChangePassword, ActionUpdateUserAvatar,
		ActionUpdateUserRole, ActionDeleteUser:
		return Action(s), true
	}
	return "", false
}

// EntityType identifies the kind of resource an audit entry refers to.
type EntityType string

const (
	EntityVendor    EntityType = "Vendor"
	EntityInventory EntityType = "Inventory"
	EntityUser      EntityType = "User"
)

// Activity is one append-only audit-log entry.  Rows are never updated
// or deleted; the dashboard reads them newest first.
//
// Fields:
//  ID          - UUID primary key.
//  Action      - what happened (closed Action enum).
//  EntityType  - kind of the affected resource.
//  EntityID    - id of the affected resource.
//  Message     - human-readable summary.
//  PerformedBy - id of the acting user.
//  PerformerName/PerformerEmail - joined from users on reads.
//  CreatedAt   - when the entry was written.
type Activity struct {
	ID             string     `json:"id"`
	Action         Action     `json:"action"`
	EntityType     EntityType `json:"entityType"`
	EntityID       string     `json:"entityId"`
	Message        string     `json:"message"`
	PerformedBy    string     `json:"performedBy"`
	PerformerName  string     `json:"performerName,omitempty"`
	PerformerEmail string     `json:"performerEmail,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
