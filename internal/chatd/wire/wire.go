// Package wire is the chatroom daemon protocol: method names and the
// mapping between domain types and protobuf Struct payloads. Requests and
// responses are plain google.protobuf.Struct messages, so no generated code
// is needed on either side.
package wire

import (
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tOgg1/chatroom/internal/models"
)

// ServiceName is the fully qualified gRPC service.
const ServiceName = "chatroom.v1.Chat"

// Method names.
const (
	MethodPing              = "Ping"
	MethodFetchConversation = "FetchConversation"
	MethodListConversations = "ListConversations"
	MethodSubscribeMessages = "SubscribeMessages"
	MethodSendMessage       = "SendMessage"
	MethodRemoveContact     = "RemoveContact"
	MethodLeaveGroup        = "LeaveGroup"
	MethodRenameGroup       = "RenameGroup"
	MethodSetGroupPhoto     = "SetGroupPhoto"
	MethodFetchProfile      = "FetchProfile"
)

// Request and response field names.
const (
	FieldRoomID        = "room_id"
	FieldUserID        = "user_id"
	FieldSelfID        = "self_id"
	FieldOtherID       = "other_id"
	FieldName          = "name"
	FieldPhotoURL      = "photo_url"
	FieldVersion       = "version"
	FieldConversation  = "conversation"
	FieldConversations = "conversations"
	FieldMessage       = "message"
	FieldMessages      = "messages"
	FieldProfile       = "profile"
)

// FullMethod returns the /service/method path for name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// SubscribeStreamDesc describes the single server-streaming method.
var SubscribeStreamDesc = grpc.StreamDesc{
	StreamName:    MethodSubscribeMessages,
	ServerStreams: true,
}

// Request builds a Struct from string fields.
func Request(fields map[string]string) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for key, value := range fields {
		out.Fields[key] = structpb.NewStringValue(value)
	}
	return out
}

// String reads a string field, "" when absent or of another type.
func String(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

// Object reads a nested Struct field.
func Object(s *structpb.Struct, key string) *structpb.Struct {
	if s == nil {
		return nil
	}
	return s.GetFields()[key].GetStructValue()
}

// List reads a list-of-structs field.
func List(s *structpb.Struct, key string) []*structpb.Struct {
	if s == nil {
		return nil
	}
	values := s.GetFields()[key].GetListValue().GetValues()
	out := make([]*structpb.Struct, 0, len(values))
	for _, v := range values {
		if obj := v.GetStructValue(); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// Wrap puts one object under key.
func Wrap(key string, value *structpb.Struct) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{key: structpb.NewStructValue(value)}}
}

// WrapList puts a list of objects under key.
func WrapList(key string, values []*structpb.Struct) *structpb.Struct {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStructValue(v))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{key: structpb.NewListValue(list)}}
}

func stringList(values []string) *structpb.Value {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStringValue(v))
	}
	return structpb.NewListValue(list)
}

func readStringList(s *structpb.Struct, key string) []string {
	values := s.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetStringValue())
	}
	return out
}

// EncodeConversation flattens either conversation variant.
func EncodeConversation(conv models.Conversation) (*structpb.Struct, error) {
	if conv == nil {
		return nil, models.ErrNilConversation
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":           structpb.NewStringValue(conv.ConversationID()),
		"type":         structpb.NewStringValue(string(conv.Kind())),
		"participants": stringList(conv.ParticipantIDs()),
	}}
	if group, ok := conv.(models.GroupConversation); ok {
		out.Fields["group"] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"name":      structpb.NewStringValue(group.Group.Name),
			"photo_url": structpb.NewStringValue(group.Group.PhotoURL),
		}})
	}
	return out, nil
}

// DecodeConversation rebuilds the right variant from its type field.
func DecodeConversation(s *structpb.Struct) (models.Conversation, error) {
	if s == nil {
		return nil, models.ErrNilConversation
	}
	kind, err := models.ParseConversationKind(String(s, "type"))
	if err != nil {
		return nil, err
	}
	id := String(s, "id")
	participants := readStringList(s, "participants")
	if kind == models.ConversationPrivate {
		return models.PrivateConversation{ID: id, Participants: participants}, nil
	}
	group := Object(s, "group")
	return models.GroupConversation{
		ID:           id,
		Participants: participants,
		Group:        models.GroupInfo{Name: String(group, "name"), PhotoURL: String(group, "photo_url")},
	}, nil
}

// EncodeMessage uses the stored field names: roomId becomes room_id, type
// stays type and the timestamp is RFC 3339.
func EncodeMessage(msg models.Message) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":        structpb.NewStringValue(msg.ID),
		"room_id":   structpb.NewStringValue(msg.RoomID),
		"sender_id": structpb.NewStringValue(msg.SenderID),
		"text":      structpb.NewStringValue(msg.Text),
		"type":      structpb.NewStringValue(string(msg.Kind)),
		"timestamp": structpb.NewStringValue(msg.CreatedAt.UTC().Format(time.RFC3339Nano)),
		"read":      structpb.NewBoolValue(msg.Read),
	}}
}

func DecodeMessage(s *structpb.Struct) (models.Message, error) {
	if s == nil {
		return models.Message{}, fmt.Errorf("message payload missing")
	}
	msg := models.Message{
		ID:       String(s, "id"),
		RoomID:   String(s, "room_id"),
		SenderID: String(s, "sender_id"),
		Text:     String(s, "text"),
		Kind:     models.MessageKind(String(s, "type")),
		Read:     s.GetFields()["read"].GetBoolValue(),
	}
	if raw := String(s, "timestamp"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return models.Message{}, fmt.Errorf("message timestamp: %w", err)
		}
		msg.CreatedAt = ts
	}
	return msg, nil
}

func EncodeMessages(messages []models.Message) *structpb.Struct {
	encoded := make([]*structpb.Struct, 0, len(messages))
	for _, msg := range messages {
		encoded = append(encoded, EncodeMessage(msg))
	}
	return WrapList(FieldMessages, encoded)
}

func DecodeMessages(s *structpb.Struct) ([]models.Message, error) {
	items := List(s, FieldMessages)
	out := make([]models.Message, 0, len(items))
	for _, item := range items {
		msg, err := DecodeMessage(item)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func EncodeProfile(profile models.Profile) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"uid":          structpb.NewStringValue(profile.ID),
		"display_name": structpb.NewStringValue(profile.DisplayName),
		"photo_url":    structpb.NewStringValue(profile.PhotoURL),
		"online":       structpb.NewBoolValue(profile.Online),
	}}
}

func DecodeProfile(s *structpb.Struct) models.Profile {
	return models.Profile{
		ID:          String(s, "uid"),
		DisplayName: String(s, "display_name"),
		PhotoURL:    String(s, "photo_url"),
		Online:      s.GetFields()["online"].GetBoolValue(),
	}
}
