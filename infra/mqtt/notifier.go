// Package mqtt bridges the dispatch fabric to an MQTT broker: outbound
// notifications become retained-free publishes on per-actor and per-cluster
// topics, and inbound actor events are consumed from a shared events topic.
package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/infra/logger"
)

// Notifier implements notify.Notifier over Eclipse Paho.
//
// Topic layout:
//
//	<prefix>/actor/<identity>/<event>
//	<prefix>/cluster/<cell>/<event>
//	<prefix>/broadcast/<event>
type Notifier struct {
	cli    paho.Client
	prefix string
	qos    byte
	log    logger.Logger
}

// NewNotifier connects to the broker and returns the transport.
func NewNotifier(cfg Config) (*Notifier, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_notifier")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Notifier{cli: cli, prefix: cfg.Prefix(), qos: cfg.QoS, log: log}, nil
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// Notify implements notify.Notifier. The publish honors the context
// deadline; an undelivered publish is the caller's to drop.
func (n *Notifier) Notify(ctx context.Context, target notify.Target, event string, payload []byte) error {
	topic := n.topic(target, event)
	token := n.cli.Publish(topic, n.qos, false, payload)
	if deadline, ok := ctx.Deadline(); ok {
		if !token.WaitTimeout(time.Until(deadline)) {
			return context.DeadlineExceeded
		}
	} else {
		token.Wait()
	}
	return token.Error()
}

func (n *Notifier) topic(target notify.Target, event string) string {
	switch target.Kind {
	case notify.KindCluster:
		return n.prefix + "/cluster/" + target.Key + "/" + event
	case notify.KindBroadcast:
		return n.prefix + "/broadcast/" + event
	default:
		return n.prefix + "/actor/" + target.Key + "/" + event
	}
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.cli.Disconnect(250)
}
