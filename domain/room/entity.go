package room

import "time"

// Service names for the two realtime session servers a membership row can
// mirror. A logical join writes one row per service so either server can be
// reconciled against the registry independently.
const (
	ServiceGame = "game"
	ServiceChat = "chat"
)

// Slots a room can hand out. First arrival takes slot 1.
const (
	SlotOne = 1
	SlotTwo = 2
)

// Membership is one persistent row of the room registry. Each user in a room
// owns two rows (one per service) sharing the same slot number. The unique
// index on (room_name, service, slot_number) makes two concurrent joins for
// the same slot impossible to both commit.
type Membership struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Username   string    `gorm:"size:50;index:idx_membership_room_user" json:"username"`
	RoomName   string    `gorm:"size:100;index:idx_membership_room_user;uniqueIndex:idx_membership_slot" json:"room_name"`
	Service    string    `gorm:"size:10;uniqueIndex:idx_membership_slot" json:"service"`
	SlotNumber int       `gorm:"uniqueIndex:idx_membership_slot" json:"slot_number"`
	IsFull     bool      `json:"is_full"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the GORM default.
func (Membership) TableName() string {
	return "room_memberships"
}
