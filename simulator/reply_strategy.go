package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/model"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// ReplyStrategy defines how a donor answers a blood_needed notification.
type ReplyStrategy interface {
	Reply(ctx context.Context, cli paho.Client, prefix, donorID, requestID string) model.DonorReply
}

// AutoReply accepts every request after an optional fixed delay.
type AutoReply struct {
	Delay time.Duration
}

// Reply implements ReplyStrategy.
func (a AutoReply) Reply(ctx context.Context, cli paho.Client, prefix, donorID, requestID string) model.DonorReply {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return ""
		}
	}
	publishReply(cli, prefix, donorID, requestID, model.ReplyAccepted)
	return model.ReplyAccepted
}

// RandomReply ignores notifications with the configured probability, accepts
// with AcceptRate and declines the rest, waiting for the specified delay
// before answering.
type RandomReply struct {
	Delay      time.Duration
	AcceptRate float64
	IgnoreRate float64
}

// Reply implements ReplyStrategy.
func (r RandomReply) Reply(ctx context.Context, cli paho.Client, prefix, donorID, requestID string) model.DonorReply {
	if r.IgnoreRate > 0 && rng.Float64() < r.IgnoreRate {
		return ""
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ""
		}
	}
	reply := model.ReplyDeclined
	if rng.Float64() < r.AcceptRate {
		reply = model.ReplyAccepted
	}
	publishReply(cli, prefix, donorID, requestID, reply)
	return reply
}

func publishReply(cli paho.Client, prefix, donorID, requestID string, reply model.DonorReply) {
	inner, err := json.Marshal(fabric.DonorResponse{RequestID: requestID, Response: reply})
	if err != nil {
		log.Printf("marshal reply: %v", err)
		return
	}
	payload, err := json.Marshal(struct {
		Token   string          `json:"token"`
		Payload json.RawMessage `json:"payload"`
	}{Token: donorID, Payload: inner})
	if err != nil {
		log.Printf("marshal envelope: %v", err)
		return
	}
	topic := fmt.Sprintf("%s/events/%s", prefix, fabric.EventDonorResponse)
	token := cli.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("reply publish timeout for %s", donorID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish reply error for %s: %v", donorID, err)
	}
}
