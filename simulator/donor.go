package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// ReplyEvent reports one simulated donor's answer for the stats loop.
type ReplyEvent struct {
	DonorID   string
	RequestID string
	Reply     model.DonorReply
}

// SimulatedDonor connects to MQTT and answers blood_needed notifications.
type SimulatedDonor struct {
	ID        string
	BloodType model.BloodType
	Location  model.GeoPoint

	Broker      string
	TopicPrefix string
	Strategy    ReplyStrategy
	Replies     *eventbus.TypedBus[ReplyEvent]

	client paho.Client
	needCh chan string
}

// NewSimulatedDonor creates a new donor.
func NewSimulatedDonor(id string, bt model.BloodType, loc model.GeoPoint) *SimulatedDonor {
	return &SimulatedDonor{
		ID:        id,
		BloodType: bt,
		Location:  loc,
		needCh:    make(chan string, 50),
	}
}

// Run connects to the broker, announces the donor's location and listens for
// blood_needed notifications until ctx is done.
func (d *SimulatedDonor) Run(ctx context.Context) error {
	cli, err := newMQTTClient(d.Broker, "sim-"+d.ID)
	if err != nil {
		return err
	}
	d.client = cli
	if err := d.announce(); err != nil {
		cli.Disconnect(250)
		return err
	}
	for i := 0; i < 3; i++ {
		go d.worker(ctx)
	}
	topic := fmt.Sprintf("%s/actor/%s/%s", d.TopicPrefix, d.ID, fabric.EventBloodNeeded)
	if token := cli.Subscribe(topic, 0, d.onBloodNeeded); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	<-ctx.Done()
	close(d.needCh)
	cli.Disconnect(250)
	return nil
}

// announce publishes an update_location event so the service can home the
// donor in its cluster cell.
func (d *SimulatedDonor) announce() error {
	inner, err := json.Marshal(fabric.LocationUpdate{Location: d.Location})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(struct {
		Token   string          `json:"token"`
		Payload json.RawMessage `json:"payload"`
	}{Token: d.ID, Payload: inner})
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/events/%s", d.TopicPrefix, fabric.EventUpdateLocation)
	token := d.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (d *SimulatedDonor) onBloodNeeded(_ paho.Client, msg paho.Message) {
	var p fabric.BloodNeededPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		log.Printf("%s: decode notification: %v", d.ID, err)
		return
	}
	select {
	case d.needCh <- p.RequestID:
	default:
		log.Printf("%s: reply queue full, dropping request %s", d.ID, p.RequestID)
	}
}

func (d *SimulatedDonor) worker(ctx context.Context) {
	for {
		select {
		case reqID, ok := <-d.needCh:
			if !ok {
				return
			}
			reply := d.Strategy.Reply(ctx, d.client, d.TopicPrefix, d.ID, reqID)
			if reply != "" && d.Replies != nil {
				d.Replies.Publish(ReplyEvent{DonorID: d.ID, RequestID: reqID, Reply: reply})
			}
		case <-ctx.Done():
			return
		}
	}
}
