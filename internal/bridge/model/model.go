// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines the messages exchanged with the host over the plugin
// channel. Messages travel as generic maps so that any transport able to carry
// JSON-like values (a gRPC stream of structs, a native bridge) can deliver them.
package model

// Message keys and handshake message types.
const (
	KeyMessageType   = "messageType"
	KeyInstanceID    = "instanceId"
	KeyAntiCSRFToken = "antiCSRFToken"
	KeyIsPluginCall  = "isPluginCall"
	KeyCallbackID    = "callbackId"
	KeyService       = "service"
	KeyAction        = "action"
	KeyActionArgs    = "actionArgs"
	KeyStatus        = "status"
	KeyArgs          = "args"
	KeyKeepCallback  = "keepCallback"

	// MessageInitPort is sent once by the client to open the channel.
	MessageInitPort = "initCommunicationWithPort"
	// MessageInitAck is sent by the host with the security token.
	MessageInitAck = "initCommunication"
)

// Response statuses.
const (
	StatusNoResult = 0
	StatusOK       = 1
)

// PluginCall is an outbound plugin invocation.
type PluginCall struct {
	CallbackID string
	Service    string
	Action     string
	Args       []any
}

// Map renders the call as a wire message. The token is stamped later, when
// the channel is acknowledged.
func (c PluginCall) Map() map[string]any {
	args := c.Args
	if args == nil {
		args = []any{}
	}
	return map[string]any{
		KeyIsPluginCall: true,
		KeyCallbackID:   c.CallbackID,
		KeyService:      c.Service,
		KeyAction:       c.Action,
		KeyActionArgs:   args,
	}
}

// InitPort builds the handshake message.
func InitPort(instanceID string) map[string]any {
	return map[string]any{KeyMessageType: MessageInitPort, KeyInstanceID: instanceID}
}

// PluginResponse is an inbound reply to a PluginCall.
type PluginResponse struct {
	CallbackID   string
	Status       int
	Args         []any
	KeepCallback bool
}

// ParseResponse extracts a plugin response from msg. ok is false when msg is
// not a plugin response.
func ParseResponse(msg map[string]any) (resp PluginResponse, ok bool) {
	if _, isBool := msg[KeyIsPluginCall].(bool); !isBool {
		return resp, false
	}
	resp.CallbackID, _ = msg[KeyCallbackID].(string)
	resp.Status = toInt(msg[KeyStatus])
	resp.Args, _ = msg[KeyArgs].([]any)
	resp.KeepCallback, _ = msg[KeyKeepCallback].(bool)
	return resp, true
}

// ParseAck returns the token carried by a handshake acknowledgement.
func ParseAck(msg map[string]any) (token string, ok bool) {
	if t, _ := msg[KeyMessageType].(string); t != MessageInitAck {
		return "", false
	}
	token, _ = msg[KeyAntiCSRFToken].(string)
	return token, true
}

// toInt accepts the numeric shapes produced by JSON and structpb decoding.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	}
	return -1
}
