package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/monitoring"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/infra/logger"
)

// envelope wraps every inbound actor event. The token identifies the sender
// and is resolved through the fabric's verifier per message.
type envelope struct {
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload"`
}

// Ingress consumes actor events from <prefix>/events/<event> and dispatches
// them to the fabric. A malformed or rejected message is logged and dropped;
// it never stops the subscription.
type Ingress struct {
	cli     paho.Client
	fab     *fabric.Fabric
	out     notify.Notifier
	prefix  string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// NewIngress connects to the broker and subscribes to the events topic.
// out carries request acknowledgments back to submitters and may be nil.
func NewIngress(cfg Config, fab *fabric.Fabric, out notify.Notifier) (*Ingress, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_ingress")
	in := &Ingress{
		fab:     fab,
		out:     out,
		prefix:  cfg.Prefix(),
		qos:     cfg.QoS,
		timeout: 5 * time.Second,
		log:     log,
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	// Resubscribe on every (re)connect so a broker restart does not leave the
	// ingress deaf.
	opts.OnConnect = func(cli paho.Client) {
		topic := in.prefix + "/events/#"
		if token := cli.Subscribe(topic, in.qos, in.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", topic, token.Error())
			return
		}
		log.Infof("subscribed to %s", topic)
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	in.cli = cli
	return in, nil
}

func (in *Ingress) onMessage(_ paho.Client, msg paho.Message) {
	event := strings.TrimPrefix(msg.Topic(), in.prefix+"/events/")
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())
	go func() {
		defer monitoring.CapturePanic()
		ctx, cancel := context.WithTimeout(context.Background(), in.timeout)
		defer cancel()
		if err := in.dispatch(ctx, event, payload); err != nil {
			in.log.Errorf("event %s rejected: %v", event, err)
		}
	}()
}

func (in *Ingress) dispatch(ctx context.Context, event string, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	actor, err := in.fab.Verify(ctx, env.Token)
	if err != nil {
		return err
	}
	switch event {
	case fabric.EventConnect:
		var p fabric.ConnectPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		conn := newActorConn(in.cli, actor.Identity, in.prefix, in.qos)
		_, err := in.fab.Connect(ctx, env.Token, p.Location, conn)
		return err
	case fabric.EventDisconnect:
		in.fab.DisconnectIdentity(actor.Identity)
		return nil
	case fabric.EventEmergencyRequest:
		var sub fabric.EmergencyRequest
		if err := json.Unmarshal(env.Payload, &sub); err != nil {
			return err
		}
		ack, err := in.fab.HandleEmergencyRequest(ctx, sub)
		if err != nil {
			return err
		}
		in.sendAck(ctx, actor.Identity, ack)
		return nil
	case fabric.EventAcceptRequest:
		var p fabric.AcceptRequest
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return in.fab.HandleAccept(ctx, actor, p.RequestID)
	case fabric.EventDonorResponse:
		var p fabric.DonorResponse
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return in.fab.HandleDonorResponse(ctx, actor, p.RequestID, p.Response)
	case fabric.EventUpdateLocation:
		var p fabric.LocationUpdate
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return in.fab.HandleLocationUpdate(ctx, actor, p.Location)
	case fabric.EventUpdateAvailability:
		var p fabric.AvailabilityUpdate
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return in.fab.HandleAvailability(ctx, actor, p.Available)
	default:
		in.log.Warnf("unknown event %s dropped", event)
		return nil
	}
}

func (in *Ingress) sendAck(ctx context.Context, identity string, ack fabric.RequestAck) {
	if in.out == nil {
		return
	}
	data, err := json.Marshal(ack)
	if err != nil {
		in.log.Errorf("marshal ack: %v", err)
		return
	}
	if err := in.out.Notify(ctx, notify.Identity(identity), fabric.EventRequestAck, data); err != nil {
		in.log.Errorf("ack %s undelivered: %v", ack.RequestID, err)
	}
}

// Close tears down the subscription and disconnects.
func (in *Ingress) Close() {
	in.cli.Unsubscribe(in.prefix + "/events/#")
	in.cli.Disconnect(250)
}
