package ws

import (
	"encoding/json"
	"fmt"

	"github.com/mhutchin/wordrush/internal/model"
)

// Frame is the wire envelope for every message in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame serializes an outbound event and payload
func EncodeFrame(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", event, err)
		}
		data = raw
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// DecodeClientEvent parses an inbound frame into its typed event
func DecodeClientEvent(raw []byte) (model.ClientEvent, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	payloadErr := func(err error) error {
		return fmt.Errorf("decoding %s payload: %w", frame.Event, err)
	}

	switch frame.Event {
	case model.EventRegisterPlayerID:
		var ev model.RegisterPlayerID
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, payloadErr(err)
		}
		return ev, nil
	case model.EventGetRooms:
		return model.GetRooms{}, nil
	case model.EventGetRoomPlayers:
		var ev model.GetRoomPlayers
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, payloadErr(err)
		}
		return ev, nil
	case model.EventHostRoom:
		var ev model.HostRoom
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, payloadErr(err)
		}
		return ev, nil
	case model.EventJoinRoom:
		var ev model.JoinRoom
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, payloadErr(err)
		}
		return ev, nil
	case model.EventLeaveRoom:
		var ev model.LeaveRoom
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			return nil, payloadErr(err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event %q", frame.Event)
	}
}
