package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harsheyeditor/OneBlood/core/model"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

func main() {
	cfg := parseFlags()
	if cfg.Size <= 0 {
		log.Fatalf("invalid population size %d", cfg.Size)
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strat := RandomReply{Delay: cfg.ReplyDelay, AcceptRate: cfg.AcceptRate, IgnoreRate: cfg.IgnoreRate}
	replies := eventbus.NewTyped[ReplyEvent]()
	defer replies.Close()
	go statsLoop(ctx, replies)

	donors := GeneratePopulation(PopulationConfig{
		Size:     cfg.Size,
		Center:   model.GeoPoint{Lat: cfg.CenterLat, Lon: cfg.CenterLon},
		RadiusKm: cfg.RadiusKm,
	})
	runDonors(ctx, donors, cfg, strat, replies)
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.TopicPrefix, "topic-prefix", "oneblood", "MQTT topic prefix")
	flag.IntVar(&cfg.Size, "size", 10, "number of simulated donors")
	flag.Float64Var(&cfg.CenterLat, "center-lat", 28.6139, "population center latitude")
	flag.Float64Var(&cfg.CenterLon, "center-lon", 77.2090, "population center longitude")
	flag.Float64Var(&cfg.RadiusKm, "radius", 30, "population scatter radius in km")
	flag.DurationVar(&cfg.ReplyDelay, "reply-delay", 0, "delay before answering")
	flag.Float64Var(&cfg.AcceptRate, "accept-rate", 0.6, "probability of accepting")
	flag.Float64Var(&cfg.IgnoreRate, "ignore-rate", 0.1, "probability of not answering at all")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging")
	flag.Parse()
	return cfg
}

// statsLoop aggregates replies and prints a summary every 30 seconds.
func statsLoop(ctx context.Context, bus *eventbus.TypedBus[ReplyEvent]) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	accepted, declined := 0, 0
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if ev.Reply == model.ReplyAccepted {
				accepted++
			} else {
				declined++
			}
		case <-ticker.C:
			log.Printf("replies so far: %d accepted, %d declined", accepted, declined)
		}
	}
}

func runDonors(ctx context.Context, donors []*SimulatedDonor, cfg Config, strat ReplyStrategy, replies *eventbus.TypedBus[ReplyEvent]) {
	var wg sync.WaitGroup
	for _, d := range donors {
		d.Broker = cfg.Broker
		d.TopicPrefix = cfg.TopicPrefix
		d.Strategy = strat
		d.Replies = replies
		wg.Add(1)
		go func(d *SimulatedDonor) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				log.Printf("%s: %v", d.ID, err)
			}
		}(d)
	}
	wg.Wait()
}
