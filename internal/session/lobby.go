package session

import (
	"fmt"
	"time"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

// CreateRoom asks the relay for a fresh room and waits for the welcome. A
// zero turnTimerSeconds leaves the choice to the relay's configuration.
func CreateRoom(t Transport, name string, turnTimerSeconds int) (*protocol.RoomWelcomeData, error) {
	err := sendLobbyRequest(t, protocol.EventRoomCreate, "", protocol.RoomCreateData{
		Name:             name,
		TurnTimerSeconds: turnTimerSeconds,
	})
	if err != nil {
		return nil, err
	}
	return awaitWelcome(t)
}

// JoinRoom takes a seat in an existing room and waits for the welcome.
func JoinRoom(t Transport, roomID, name string) (*protocol.RoomWelcomeData, error) {
	err := sendLobbyRequest(t, protocol.EventRoomJoin, roomID, protocol.RoomJoinData{Name: name})
	if err != nil {
		return nil, err
	}
	return awaitWelcome(t)
}

// RejoinRoom reclaims a seat after a disconnect using the participant ID
// from the original welcome.
func RejoinRoom(t Transport, roomID, participantID string) (*protocol.RoomWelcomeData, error) {
	err := sendLobbyRequest(t, protocol.EventRoomRejoin, roomID, protocol.RoomRejoinData{
		ParticipantID: participantID,
	})
	if err != nil {
		return nil, err
	}
	return awaitWelcome(t)
}

// LeaveRoom gives the seat up for good. The relay sends no reply.
func LeaveRoom(t Transport) error {
	return sendLobbyRequest(t, protocol.EventRoomLeave, "", nil)
}

// AwaitRoomUpdate consumes envelopes until a room update satisfies ok.
// Hosts use it to wait for enough participants before starting a game. Abort
// by closing the transport.
func AwaitRoomUpdate(t Transport, ok func(protocol.RoomUpdateData) bool) (*protocol.RoomUpdateData, error) {
	for {
		env, err := t.Receive()
		if err != nil {
			return nil, err
		}
		if env.Type != protocol.EventRoomUpdate {
			continue
		}

		var update protocol.RoomUpdateData
		if err := env.Decode(&update); err != nil {
			return nil, err
		}
		if ok(update) {
			return &update, nil
		}
	}
}

func sendLobbyRequest(t Transport, et protocol.EventType, roomID string, payload any) error {
	env, err := protocol.NewEnvelope(et, roomID, time.Now(), payload)
	if err != nil {
		return err
	}
	return t.Send(env)
}

func awaitWelcome(t Transport) (*protocol.RoomWelcomeData, error) {
	for {
		env, err := t.Receive()
		if err != nil {
			return nil, err
		}

		switch env.Type {
		case protocol.EventRoomWelcome:
			var welcome protocol.RoomWelcomeData
			if err := env.Decode(&welcome); err != nil {
				return nil, err
			}
			return &welcome, nil

		case protocol.EventError:
			var data protocol.ErrorData
			if err := env.Decode(&data); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("session: %s: %s", data.Code, data.Message)

		default:
			// Room updates race ahead of the welcome when other seats
			// change; skip them.
		}
	}
}
