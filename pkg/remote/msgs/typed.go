package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrUnsupportedCommand indicates the command is unsupported.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	proto.Message
	TypeID() uint32
	NewMessage() SerializableMessage
}

// MessageTypes are predefined mapping of type ID to messages.
var MessageTypes = map[uint32]SerializableMessage{
	CommandOKTypeID:    (*CommandOK)(nil),
	CommandErrTypeID:   (*CommandErr)(nil),
	LinkStatusTypeID:   (*LinkStatus)(nil),
	PressTypeID:        (*Press)(nil),
	SequenceTypeID:     (*Sequence)(nil),
	SetLEDsTypeID:      (*SetLEDs)(nil),
	PauseTypeID:        (*Pause)(nil),
	InitTypeID:         (*Init)(nil),
	StatusQueryTypeID:  (*StatusQuery)(nil),
	StatusReplyTypeID:  (*StatusReply)(nil),
	WaitTypeID:         (*Wait)(nil),
	RunScriptTypeID:    (*RunScript)(nil),
	CounterQueryTypeID: (*CounterQuery)(nil),
	CounterValueTypeID: (*CounterValue)(nil),
}

// Typed wraps a message with type information.
type Typed struct {
	TypeID   uint32 `protobuf:"varint,1,opt,name=type_id,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg SerializableMessage, seq uint32) (*Typed, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeID: msg.TypeID(), Sequence: seq, Message: data}, nil
}

// Decode decodes the packet into actual message.
func (p *Typed) Decode() (SerializableMessage, error) {
	msgType, ok := MessageTypes[p.TypeID]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeID}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(p.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(p)
}

// Kind gets message kind from type ID.
func (p *Typed) Kind() uint32 {
	return p.TypeID & TypeIDMaskKind
}

// IsCommand determines if the message is a command.
func (p *Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand && p.TypeID&TypeIDMaskReply == 0
}

// IsReply determines if the message is a reply to a command.
func (p *Typed) IsReply() bool {
	return p.Kind() == TypeIDKindCommand && p.TypeID&TypeIDMaskReply != 0
}

// IsEvent determines if the message is an event.
func (p *Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// EncodeMessage wraps msg into Typed and encodes it.
func EncodeMessage(msg SerializableMessage, seq uint32) ([]byte, error) {
	typed, err := TypedFrom(msg, seq)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}
