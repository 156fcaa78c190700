package registry

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MathKia/ttt-microservices-backend/domain/room"
)

// ErrRoomFull is returned when a room already holds two distinct slots.
var ErrRoomFull = errors.New("room is full")

// MembershipRepository owns the persistent membership rows. Every join and
// exit applies its two service rows as one transaction so a half-written pair
// is never observable, and the unique (room, service, slot) index stops two
// concurrent joins from both taking the same slot.
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository.
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{
		db: db,
	}
}

// Join admits a user to a room and returns the slot they received.
//
// Slot assignment follows arrival order: an empty room hands out slot 1, a
// half-occupied room hands out slot 2 and flips is_full on every row of the
// room. Anything else is rejected with ErrRoomFull, including a room whose
// rows still carry is_full from a past pairing, which stays unjoinable until
// it fully empties.
func (r *MembershipRepository) Join(ctx context.Context, roomName, username string) (int, error) {
	var slot int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []room.Membership
		if err := tx.Where("room_name = ?", roomName).Find(&rows).Error; err != nil {
			return err
		}

		switch {
		case len(rows) == 0:
			slot = room.SlotOne
		case len(rows) == 2 && !rows[0].IsFull:
			slot = room.SlotTwo
		default:
			return ErrRoomFull
		}

		pair := []room.Membership{
			{Username: username, RoomName: roomName, Service: room.ServiceGame, SlotNumber: slot},
			{Username: username, RoomName: roomName, Service: room.ServiceChat, SlotNumber: slot},
		}
		if err := tx.Create(&pair).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent join won the slot between our read and write.
				return ErrRoomFull
			}
			return err
		}

		if slot == room.SlotTwo {
			if err := tx.Model(&room.Membership{}).
				Where("room_name = ?", roomName).
				Update("is_full", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return slot, nil
}

// Exit removes a user's rows from a room. It is idempotent: a user that is
// not present counts as already removed and reports removed=false with no
// error.
func (r *MembershipRepository) Exit(ctx context.Context, roomName, username string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("room_name = ? AND username = ?", roomName, username).
		Delete(&room.Membership{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Members returns every membership row for a room, ordered by slot then
// service. An unknown room yields an empty slice.
func (r *MembershipRepository) Members(ctx context.Context, roomName string) ([]room.Membership, error) {
	var rows []room.Membership
	err := r.db.WithContext(ctx).
		Where("room_name = ?", roomName).
		Order("slot_number, service").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
