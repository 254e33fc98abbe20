package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/teamflow/internal/ws"
)

// UserRooms реализует ws.RoomProvider: комнаты бесед и команд, к которым
// gateway подключает новое соединение сразу после аутентификации
func (d *Database) UserRooms(ctx context.Context, userID uuid.UUID) ([]ws.RoomID, error) {
	conversationIDs, err := d.GetUserConversationIDs(userID.String())
	if err != nil {
		return nil, err
	}

	teamIDs, err := d.GetUserTeamIDs(userID.String())
	if err != nil {
		return nil, err
	}

	rooms := make([]ws.RoomID, 0, len(conversationIDs)+len(teamIDs))
	for _, id := range conversationIDs {
		rooms = append(rooms, ws.ConversationRoom(id))
	}
	for _, id := range teamIDs {
		rooms = append(rooms, ws.TeamRoom(id))
	}

	return rooms, nil
}

// CanJoin реализует ws.RoomAuthorizer: явный вход в комнату доступен
// только участникам беседы или команды
func (d *Database) CanJoin(ctx context.Context, userID uuid.UUID, kind ws.RoomKind, id uuid.UUID) (bool, error) {
	switch kind {
	case ws.KindConversation:
		return d.IsConversationMember(userID.String(), id.String())
	case ws.KindTeam:
		return d.IsTeamMember(userID.String(), id.String())
	}
	return false, nil
}
