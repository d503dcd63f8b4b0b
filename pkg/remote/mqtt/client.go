package mqtt

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

// DefaultCommandExpiration is the expiration expecting a reply when the
// context of Do has no deadline.
const DefaultCommandExpiration = 2 * time.Second

type result struct {
	msg msgs.SerializableMessage
	err error
}

// Client sends commands to a bridge.
type Client struct {
	Queue  *Queue
	Topics Topics
	// Expiration bounds Do without a context deadline.
	Expiration time.Duration

	pub     Publisher
	seq     uint32
	pending map[uint32]chan result
	lock    sync.Mutex
}

// NewClient creates a Client of the bridge with the id.
func NewClient(brokerURL, id string) (*Client, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	q := NewQueue(opts, topicPrefix)
	c := newClient(q, TopicsFor(id))
	c.Queue = q
	return c, nil
}

func newClient(pub Publisher, topics Topics) *Client {
	return &Client{
		Topics:     topics,
		Expiration: DefaultCommandExpiration,
		pub:        pub,
		pending:    make(map[uint32]chan result),
	}
}

// Connect subscribes the reply topic and connects to the broker.
func (c *Client) Connect() error {
	c.Queue.Sub(c.Topics.Msg, c.HandleReply)
	token := c.Queue.Connect()
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (c *Client) Close() error {
	return c.Queue.Close()
}

// Do sends a command and waits for the reply until the context deadline,
// or Expiration if ctx has none. A CommandErr reply is returned as the
// error.
func (c *Client) Do(ctx context.Context, msg msgs.SerializableMessage) (msgs.SerializableMessage, error) {
	ch := make(chan result, 1)
	c.lock.Lock()
	c.seq++
	if c.seq == 0 {
		c.seq++
	}
	seq := c.seq
	c.pending[seq] = ch
	c.lock.Unlock()
	defer func() {
		c.lock.Lock()
		delete(c.pending, seq)
		c.lock.Unlock()
	}()

	data, err := msgs.EncodeMessage(msg, seq)
	if err != nil {
		return nil, err
	}
	token := c.pub.PubWith(c.Topics.Cmd, data, 1, false)
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Expiration)
		defer cancel()
	}
	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleReply dispatches a payload received on the reply topic.
func (c *Client) HandleReply(_ string, payload []byte) {
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		glog.Warningf("invalid reply: %v", err)
		return
	}
	if !typed.IsReply() {
		return
	}
	c.lock.Lock()
	ch := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if ch == nil {
		return
	}
	var r result
	r.msg, r.err = typed.Decode()
	if cmdErr, ok := r.msg.(*msgs.CommandErr); ok {
		r.err = cmdErr
	}
	ch <- r
}

// Observed is a message seen on a topic of a bridge.
type Observed struct {
	BridgeID string
	Topic    string
	Typed    *msgs.Typed
	Msg      msgs.SerializableMessage
	Err      error
}

// Observe decodes a payload seen on a bridge topic. An empty payload on
// the status topic means the bridge is gone and leaves Typed nil.
func Observe(topic string, payload []byte) Observed {
	o := Observed{BridgeID: BridgeIDFromTopic(topic), Topic: topic}
	if len(payload) == 0 {
		return o
	}
	if o.Typed, o.Err = msgs.DecodeTyped(payload); o.Err == nil {
		o.Msg, o.Err = o.Typed.Decode()
	}
	return o
}

// Watch subscribes all topics of the bridge with the id, or of all bridges
// when id is "+".
func Watch(q *Queue, id string, fn func(Observed)) []*Subscription {
	topics := TopicsFor(id)
	handler := func(topic string, payload []byte) {
		fn(Observe(topic, payload))
	}
	return []*Subscription{
		q.Sub(topics.Status, handler),
		q.Sub(topics.Cmd, handler),
		q.Sub(topics.Msg, handler),
	}
}
