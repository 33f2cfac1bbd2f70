// Package telemetry collects donor heartbeats over MQTT: pushed state
// updates, or polled snapshots for deployments where donor apps only answer
// on request.
package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harsheyeditor/OneBlood/config"
	"github.com/harsheyeditor/OneBlood/core/cluster"
	"github.com/harsheyeditor/OneBlood/core/donorstatus"
	"github.com/harsheyeditor/OneBlood/infra/logger"
	infmqtt "github.com/harsheyeditor/OneBlood/infra/mqtt"
)

// Manager collects donor heartbeats either via push or polling.
type Manager struct {
	cfg      config.TelemetryConfig
	cli      paho.Client
	status   donorstatus.Store
	log      logger.Logger
	registry *cluster.Registry

	respCh chan heartbeatMessage

	pollReq     prometheus.Counter
	pollResp    prometheus.Counter
	pollTimeout prometheus.Counter
	lastCollect prometheus.Gauge
	latency     prometheus.Histogram
}

type heartbeatMessage struct {
	DonorID string
	Payload []byte
	Arrived time.Time
}

// NewManager connects to MQTT and prepares heartbeat collection. The registry
// may be nil; polling then never reports timeouts.
func NewManager(mqttCfg infmqtt.Config, cfg config.TelemetryConfig, status donorstatus.Store, registry *cluster.Registry) (*Manager, error) {
	opts, err := infmqtt.NewClientOptions(mqttCfg)
	if err != nil {
		return nil, err
	}
	id := mqttCfg.ClientID
	if id != "" {
		id += "-telemetry"
	} else {
		id = "telemetry-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	m := &Manager{
		cfg:         cfg,
		cli:         cli,
		status:      status,
		log:         logger.New("telemetry"),
		registry:    registry,
		respCh:      make(chan heartbeatMessage, 100),
		pollReq:     prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_requests_total", Help: "Number of heartbeat poll requests"}),
		pollResp:    prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_responses_total", Help: "Number of heartbeat poll responses"}),
		pollTimeout: prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_poll_timeout_total", Help: "Number of donors that missed a poll"}),
		lastCollect: prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_collect_timestamp_seconds", Help: "Unix timestamp of last heartbeat collection"}),
		latency:     prometheus.NewHistogram(prometheus.HistogramOpts{Name: "telemetry_collect_latency_seconds", Help: "Latency of heartbeat collection", Buckets: prometheus.DefBuckets}),
	}
	prometheus.MustRegister(m.pollReq, m.pollResp, m.pollTimeout, m.lastCollect, m.latency)
	return m, nil
}

// Start runs heartbeat collection until context is done.
func (m *Manager) Start(ctx context.Context) {
	mode := strings.ToLower(m.cfg.Mode)
	if mode == "" {
		mode = "push"
	}
	if mode == "push" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.StatePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onPush); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe state: %v", token.Error())
		}
	}
	if mode == "pull" || mode == "hybrid" {
		topic := strings.TrimSuffix(m.cfg.ResponsePrefix, "/") + "/+"
		if token := m.cli.Subscribe(topic, 0, m.onResponse); token.Wait() && token.Error() != nil {
			m.log.Errorf("subscribe response: %v", token.Error())
		}
		go m.pollLoop(ctx)
	}
	<-ctx.Done()
	if m.cli.IsConnected() {
		m.cli.Disconnect(250)
	}
}

func (m *Manager) onPush(_ paho.Client, msg paho.Message) {
	if err := m.process(msg.Payload(), msg.Topic()); err != nil {
		m.log.Errorf("push decode: %v", err)
	}
}

func (m *Manager) onResponse(_ paho.Client, msg paho.Message) {
	m.respCh <- heartbeatMessage{DonorID: extractID(msg.Topic()), Payload: msg.Payload(), Arrived: time.Now()}
}

func extractID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.Interval()) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.doPoll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) doPoll(ctx context.Context) {
	start := time.Now()
	expected := map[string]struct{}{}
	if m.registry != nil {
		for _, c := range m.registry.All() {
			expected[c.Identity()] = struct{}{}
		}
	}
	m.pollReq.Inc()
	token := m.cli.Publish(m.cfg.RequestTopic, 0, false, []byte("poll"))
	token.Wait()
	timeout := time.NewTimer(time.Duration(m.cfg.Timeout()) * time.Second)
	defer timeout.Stop()
	for {
		select {
		case resp := <-m.respCh:
			if err := m.process(resp.Payload, ""); err != nil {
				m.log.Errorf("poll decode: %v", err)
			} else {
				m.pollResp.Inc()
				m.latency.Observe(time.Since(start).Seconds())
				m.lastCollect.SetToCurrentTime()
				delete(expected, resp.DonorID)
			}
		case <-timeout.C:
			for range expected {
				m.pollTimeout.Inc()
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) process(payload []byte, topic string) error {
	var msg struct {
		DonorID   string `json:"donor_id"`
		Available *bool  `json:"available"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	if msg.DonorID == "" {
		msg.DonorID = extractID(topic)
	}
	if msg.DonorID == "" {
		return nil
	}
	if m.status != nil && msg.Available != nil {
		m.status.SetAvailability(msg.DonorID, *msg.Available)
	}
	m.lastCollect.SetToCurrentTime()
	return nil
}
