package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const connSendTimeout = 2 * time.Second

// actorConn is a cluster.Conn backed by the broker: sends become publishes
// on the actor's topic. A send after the actor is displaced or gone is a
// publish nobody subscribes to, which the broker drops.
type actorConn struct {
	cli      paho.Client
	identity string
	prefix   string
	qos      byte
}

func newActorConn(cli paho.Client, identity, prefix string, qos byte) *actorConn {
	return &actorConn{cli: cli, identity: identity, prefix: prefix, qos: qos}
}

func (c *actorConn) Identity() string { return c.identity }

func (c *actorConn) Send(event string, payload []byte) error {
	topic := c.prefix + "/actor/" + c.identity + "/" + event
	token := c.cli.Publish(topic, c.qos, false, payload)
	if !token.WaitTimeout(connSendTimeout) {
		return context.DeadlineExceeded
	}
	return token.Error()
}
