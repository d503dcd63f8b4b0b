package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

// Topics of a bridge, relative to the topic prefix.
type Topics struct {
	// Status receives retained LinkStatus events.
	Status string
	// Cmd receives commands.
	Cmd string
	// Msg receives replies.
	Msg string
}

// TopicsFor returns the topics of the bridge with the id.
func TopicsFor(id string) Topics {
	return Topics{Status: id + "/status", Cmd: id + "/cmd", Msg: id + "/msg"}
}

// BridgeIDFromTopic extracts the bridge id from a topic.
func BridgeIDFromTopic(topic string) string {
	if pos := strings.LastIndex(topic, "/"); pos >= 0 {
		return topic[:pos]
	}
	return topic
}

// Command is a received command to be processed.
type Command struct {
	Sequence uint32
	Msg      msgs.SerializableMessage

	reply func(msgs.SerializableMessage, uint32) error
}

// Done sends the reply of the command.
func (c *Command) Done(reply msgs.SerializableMessage) error {
	return c.reply(reply, c.Sequence)
}

// Fail replies the command with an error.
func (c *Command) Fail(err error) error {
	return c.Done(msgs.NewCommandErr(err))
}

// CommandHandler handles commands. It's invoked on the MQTT client
// goroutine and must not block.
type CommandHandler interface {
	HandleCommand(*Command)
}

// HandleCommandFunc is func form of CommandHandler.
type HandleCommandFunc func(*Command)

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(cmd *Command) {
	f(cmd)
}

// Bridge publishes the status of a bridge and receives its commands.
type Bridge struct {
	Queue   *Queue
	Topics  Topics
	Handler CommandHandler

	pub    Publisher
	status []byte
	lock   sync.Mutex
}

// NewBridge creates a Bridge.
func NewBridge(brokerURL, id string, handler CommandHandler) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	topics := TopicsFor(id)
	opts.SetBinaryWill(topicPrefix+topics.Status, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("swbridge:" + id)
	}
	q := NewQueue(opts, topicPrefix)
	b := newBridge(q, topics, handler)
	b.Queue = q
	q.OnConnect = b.republish
	return b, nil
}

func newBridge(pub Publisher, topics Topics, handler CommandHandler) *Bridge {
	return &Bridge{Topics: topics, Handler: handler, pub: pub}
}

// Run implements framework.Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(b.Topics.Cmd, b.HandleCmd)
	if token := b.Queue.Connect(); token.Wait() && token.Error() != nil {
		sub.Close()
		return fmt.Errorf("connect: %w", token.Error())
	}
	<-ctx.Done()
	sub.Close()
	b.Queue.PubWith(b.Topics.Status, nil, 1, true).Wait()
	b.Queue.Close()
	return nil
}

// PublishStatus publishes a retained status event.
func (b *Bridge) PublishStatus(status *msgs.LinkStatus) error {
	data, err := msgs.EncodeMessage(status, 0)
	if err != nil {
		return err
	}
	b.lock.Lock()
	b.status = data
	b.lock.Unlock()
	b.pub.PubWith(b.Topics.Status, data, 1, true)
	return nil
}

func (b *Bridge) republish() {
	b.lock.Lock()
	data := b.status
	b.lock.Unlock()
	if data != nil {
		b.pub.PubWith(b.Topics.Status, data, 1, true)
	}
}

// HandleCmd decodes a payload received on the command topic.
func (b *Bridge) HandleCmd(_ string, payload []byte) {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		glog.Warningf("invalid command: %v", err)
		return
	}
	if !typed.IsCommand() {
		glog.V(2).Infof("ignore non-command type %x", typed.TypeID)
		return
	}
	cmd := &Command{Sequence: typed.Sequence, reply: b.reply}
	msg, err := typed.Decode()
	if err != nil {
		cmd.Fail(err)
		return
	}
	cmd.Msg = msg
	glog.V(2).Infof("CMD %d %s", cmd.Sequence, msg)
	if b.Handler == nil {
		cmd.Fail(msgs.ErrUnsupportedCommand)
		return
	}
	b.Handler.HandleCommand(cmd)
}

func (b *Bridge) reply(msg msgs.SerializableMessage, seq uint32) error {
	data, err := msgs.EncodeMessage(msg, seq)
	if err != nil {
		return err
	}
	b.pub.PubWith(b.Topics.Msg, data, 1, false)
	return nil
}
