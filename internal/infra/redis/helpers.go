package redis

import (
	"sort"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

func sortRoomsByID(rooms []*domain.Room) {
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
}
