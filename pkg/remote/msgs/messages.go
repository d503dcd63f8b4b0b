package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/swbridge.go/pkg/link"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewMessage implements SerializableMessage.
func (m *CommandOK) NewMessage() SerializableMessage { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
	// Fault is the fault code when the command failed on a latched fault.
	Fault uint32 `protobuf:"varint,2,opt,name=fault,proto3" json:"fault,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	m := &CommandErr{Message: err.Error()}
	var fault *link.Fault
	if errors.As(err, &fault) {
		m.Fault = uint32(fault.Code)
	}
	return m
}

// NewMessage implements SerializableMessage.
func (m *CommandErr) NewMessage() SerializableMessage { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// LinkStatus is an event reflecting the state of the bridge.
type LinkStatus struct {
	ID         string `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	State      string `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	Fault      uint32 `protobuf:"varint,3,opt,name=fault,proto3" json:"fault,omitempty"`
	FaultName  string `protobuf:"bytes,4,opt,name=fault_name,proto3" json:"fault_name,omitempty"`
	ResetCount uint32 `protobuf:"varint,5,opt,name=reset_count,proto3" json:"reset_count,omitempty"`
	FramesSent uint64 `protobuf:"varint,6,opt,name=frames_sent,proto3" json:"frames_sent,omitempty"`
	Script     string `protobuf:"bytes,7,opt,name=script,proto3" json:"script,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *LinkStatus) NewMessage() SerializableMessage { return &LinkStatus{} }

// TypeID implements SerializableMessage.
func (m *LinkStatus) TypeID() uint32 { return LinkStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *LinkStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStatus) Reset() { *m = LinkStatus{} }

// String implements proto.Message.
func (m *LinkStatus) String() string { return proto.CompactTextString(m) }

// Press sends one controller state.
type Press struct {
	Buttons uint32 `protobuf:"varint,1,opt,name=buttons,proto3" json:"buttons,omitempty"`
	DPad    uint32 `protobuf:"varint,2,opt,name=dpad,proto3" json:"dpad,omitempty"`
	LeftX   uint32 `protobuf:"varint,3,opt,name=left_x,proto3" json:"left_x,omitempty"`
	LeftY   uint32 `protobuf:"varint,4,opt,name=left_y,proto3" json:"left_y,omitempty"`
	RightX  uint32 `protobuf:"varint,5,opt,name=right_x,proto3" json:"right_x,omitempty"`
	RightY  uint32 `protobuf:"varint,6,opt,name=right_y,proto3" json:"right_y,omitempty"`
}

// NewPress creates a Press from a frame.
func NewPress(fr link.Frame) *Press {
	return &Press{
		Buttons: uint32(fr.Buttons),
		DPad:    uint32(fr.DPad),
		LeftX:   uint32(fr.Left.X),
		LeftY:   uint32(fr.Left.Y),
		RightX:  uint32(fr.Right.X),
		RightY:  uint32(fr.Right.Y),
	}
}

// Frame converts the message into a frame.
func (m *Press) Frame() (fr link.Frame, err error) {
	if m.Buttons > 0xffff {
		return fr, fmt.Errorf("invalid buttons 0x%x", m.Buttons)
	}
	dpad := link.DPad(m.DPad)
	if m.DPad > 0xff || !dpad.IsValid() {
		return fr, fmt.Errorf("invalid d-pad %d", m.DPad)
	}
	for _, v := range []uint32{m.LeftX, m.LeftY, m.RightX, m.RightY} {
		if v > 0xff {
			return fr, fmt.Errorf("invalid stick value %d", v)
		}
	}
	fr.Buttons, fr.DPad = link.Buttons(m.Buttons), dpad
	fr.Left = link.Stick{X: uint8(m.LeftX), Y: uint8(m.LeftY)}
	fr.Right = link.Stick{X: uint8(m.RightX), Y: uint8(m.RightY)}
	return fr, nil
}

// NewMessage implements SerializableMessage.
func (m *Press) NewMessage() SerializableMessage { return &Press{} }

// TypeID implements SerializableMessage.
func (m *Press) TypeID() uint32 { return PressTypeID }

// ProtoMessage implements proto.Message.
func (m *Press) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Press) Reset() { *m = Press{} }

// String implements proto.Message.
func (m *Press) String() string { return proto.CompactTextString(m) }

// SequenceEntry is an entry of Sequence.
type SequenceEntry struct {
	Buttons uint32 `protobuf:"varint,1,opt,name=buttons,proto3" json:"buttons,omitempty"`
	DPad    uint32 `protobuf:"varint,2,opt,name=dpad,proto3" json:"dpad,omitempty"`
	Mash    bool   `protobuf:"varint,3,opt,name=mash,proto3" json:"mash,omitempty"`
	Repeat  uint32 `protobuf:"varint,4,opt,name=repeat,proto3" json:"repeat,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SequenceEntry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SequenceEntry) Reset() { *m = SequenceEntry{} }

// String implements proto.Message.
func (m *SequenceEntry) String() string { return proto.CompactTextString(m) }

// Sequence sends a button sequence.
type Sequence struct {
	Entries []*SequenceEntry `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
}

// NewSequence creates a Sequence from entries.
func NewSequence(entries []link.SequenceEntry) *Sequence {
	m := &Sequence{}
	for _, e := range entries {
		m.Entries = append(m.Entries, &SequenceEntry{
			Buttons: uint32(e.Buttons),
			DPad:    uint32(e.DPad),
			Mash:    e.Mode == link.ModeMash,
			Repeat:  uint32(e.Repeat),
		})
	}
	return m
}

// LinkEntries converts the message into validated sequence entries.
func (m *Sequence) LinkEntries() ([]link.SequenceEntry, error) {
	entries := make([]link.SequenceEntry, 0, len(m.Entries))
	for n, e := range m.Entries {
		if e == nil || e.Buttons > 0xffff || e.DPad > 0xff || e.Repeat > link.MaxRepeat {
			return nil, fmt.Errorf("invalid entry %d", n)
		}
		entry := link.SequenceEntry{
			Buttons: link.Buttons(e.Buttons),
			DPad:    link.DPad(e.DPad),
			Repeat:  uint16(e.Repeat),
		}
		if e.Mash {
			entry.Mode = link.ModeMash
		}
		entries = append(entries, entry)
	}
	if err := link.ValidateSequence(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// NewMessage implements SerializableMessage.
func (m *Sequence) NewMessage() SerializableMessage { return &Sequence{} }

// TypeID implements SerializableMessage.
func (m *Sequence) TypeID() uint32 { return SequenceTypeID }

// ProtoMessage implements proto.Message.
func (m *Sequence) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Sequence) Reset() { *m = Sequence{} }

// String implements proto.Message.
func (m *Sequence) String() string { return proto.CompactTextString(m) }

// SetLEDs sets the LEDs of the USB interface and sends the current state.
type SetLEDs struct {
	LEDs uint32 `protobuf:"varint,1,opt,name=leds,proto3" json:"leds,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *SetLEDs) NewMessage() SerializableMessage { return &SetLEDs{} }

// TypeID implements SerializableMessage.
func (m *SetLEDs) TypeID() uint32 { return SetLEDsTypeID }

// ProtoMessage implements proto.Message.
func (m *SetLEDs) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SetLEDs) Reset() { *m = SetLEDs{} }

// String implements proto.Message.
func (m *SetLEDs) String() string { return proto.CompactTextString(m) }

// Pause releases the controller.
type Pause struct {
}

// NewMessage implements SerializableMessage.
func (m *Pause) NewMessage() SerializableMessage { return &Pause{} }

// TypeID implements SerializableMessage.
func (m *Pause) TypeID() uint32 { return PauseTypeID }

// ProtoMessage implements proto.Message.
func (m *Pause) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Pause) Reset() { *m = Pause{} }

// String implements proto.Message.
func (m *Pause) String() string { return proto.CompactTextString(m) }

// CounterQuery reads the reset counter, optionally updating it first.
type CounterQuery struct {
	Increment bool `protobuf:"varint,1,opt,name=increment,proto3" json:"increment,omitempty"`
	Zero      bool `protobuf:"varint,2,opt,name=zero,proto3" json:"zero,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *CounterQuery) NewMessage() SerializableMessage { return &CounterQuery{} }

// TypeID implements SerializableMessage.
func (m *CounterQuery) TypeID() uint32 { return CounterQueryTypeID }

// ProtoMessage implements proto.Message.
func (m *CounterQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CounterQuery) Reset() { *m = CounterQuery{} }

// String implements proto.Message.
func (m *CounterQuery) String() string { return proto.CompactTextString(m) }

// CounterValue is the reply of CounterQuery.
type CounterValue struct {
	Count uint32 `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *CounterValue) NewMessage() SerializableMessage { return &CounterValue{} }

// TypeID implements SerializableMessage.
func (m *CounterValue) TypeID() uint32 { return CounterValueTypeID }

// ProtoMessage implements proto.Message.
func (m *CounterValue) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CounterValue) Reset() { *m = CounterValue{} }

// String implements proto.Message.
func (m *CounterValue) String() string { return proto.CompactTextString(m) }

// Init performs the link handshake. The reply is a StatusReply.
type Init struct {
}

// NewMessage implements SerializableMessage.
func (m *Init) NewMessage() SerializableMessage { return &Init{} }

// TypeID implements SerializableMessage.
func (m *Init) TypeID() uint32 { return InitTypeID }

// ProtoMessage implements proto.Message.
func (m *Init) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Init) Reset() { *m = Init{} }

// String implements proto.Message.
func (m *Init) String() string { return proto.CompactTextString(m) }

// StatusQuery queries the status.
type StatusQuery struct {
}

// NewMessage implements SerializableMessage.
func (m *StatusQuery) NewMessage() SerializableMessage { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response for StatusQuery and Init.
type StatusReply struct {
	Status *LinkStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
	// Sync is the result of Init.
	Sync string `protobuf:"bytes,2,opt,name=sync,proto3" json:"sync,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *StatusReply) NewMessage() SerializableMessage { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// Wait releases the controller if needed and waits.
type Wait struct {
	Millis uint32 `protobuf:"varint,1,opt,name=millis,proto3" json:"millis,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *Wait) NewMessage() SerializableMessage { return &Wait{} }

// TypeID implements SerializableMessage.
func (m *Wait) TypeID() uint32 { return WaitTypeID }

// ProtoMessage implements proto.Message.
func (m *Wait) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Wait) Reset() { *m = Wait{} }

// String implements proto.Message.
func (m *Wait) String() string { return proto.CompactTextString(m) }

// RunScript runs a script file on the bridge host to completion.
type RunScript struct {
	Path string `protobuf:"bytes,1,opt,name=path,proto3" json:"path,omitempty"`
}

// NewMessage implements SerializableMessage.
func (m *RunScript) NewMessage() SerializableMessage { return &RunScript{} }

// TypeID implements SerializableMessage.
func (m *RunScript) TypeID() uint32 { return RunScriptTypeID }

// ProtoMessage implements proto.Message.
func (m *RunScript) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RunScript) Reset() { *m = RunScript{} }

// String implements proto.Message.
func (m *RunScript) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupLink    uint32 = 0x00010000
	GroupCounter uint32 = 0x00020000
)

// TypeIDs
const (
	CommandOKTypeID    uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID   uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	LinkStatusTypeID   uint32 = GroupLink | TypeIDKindEvent | 0x0000
	PressTypeID        uint32 = GroupLink | 0x0001
	SequenceTypeID     uint32 = GroupLink | 0x0002
	SetLEDsTypeID      uint32 = GroupLink | 0x0003
	PauseTypeID        uint32 = GroupLink | 0x0004
	InitTypeID         uint32 = GroupLink | 0x0005
	StatusQueryTypeID  uint32 = GroupLink | 0x0006
	StatusReplyTypeID  uint32 = StatusQueryTypeID | TypeIDMaskReply
	WaitTypeID         uint32 = GroupLink | 0x0007
	RunScriptTypeID    uint32 = GroupLink | 0x0008
	CounterQueryTypeID uint32 = GroupCounter | 0x0000
	CounterValueTypeID uint32 = CounterQueryTypeID | TypeIDMaskReply
)
