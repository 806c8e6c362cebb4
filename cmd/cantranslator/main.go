package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/samsamfire/gocantranslator/pkg/bus"
	can "github.com/samsamfire/gocantranslator/pkg/can"
	_ "github.com/samsamfire/gocantranslator/pkg/can/socketcan"
	_ "github.com/samsamfire/gocantranslator/pkg/can/virtual"
	"github.com/samsamfire/gocantranslator/pkg/config"
	log "github.com/sirupsen/logrus"
)

var DEFAULT_CAN_BACKEND = "socketcan"
var DEFAULT_CAN_CHANNEL = "can0"
var DEFAULT_BUS = "can1"
var DEFAULT_DRAIN_PERIOD = 10 * time.Millisecond

func main() {
	// Command line arguments
	configPath := flag.String("c", "cantranslator.ini", "configuration file path")
	busName := flag.String("b", DEFAULT_BUS, "bus section of the configuration e.g. can1 for [bus.can1]")
	backendName := flag.String("i", DEFAULT_CAN_BACKEND, "backend e.g. socketcan,virtual")
	channel := flag.String("n", DEFAULT_CAN_CHANNEL, "backend channel e.g. can0,vcan0")
	level := flag.String("l", "info", "log level")
	period := flag.Duration("p", DEFAULT_DRAIN_PERIOD, "transmit queue processing period")
	flag.Parse()

	logLevel, err := log.ParseLevel(*level)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(logLevel)

	file, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	busConfig, err := file.Bus(*busName)
	if err != nil {
		log.Fatal(err)
	}
	backend, err := can.NewBackend(*backendName, *channel)
	if err != nil {
		log.Fatalf("%v, available : %v", err, can.AvailableBackends())
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}

	// Receive side is handled elsewhere, only trace the interrupts
	handler := func() {
		log.Debugf("[BUS][x%x] RX channel not empty", busConfig.Address)
	}
	canBus, err := bus.New(backend, busConfig, file, handler)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := canBus.Initialize(ctx); err != nil {
		log.Error(err)
		return
	}
	canBus.Run(ctx, *period)
	stats := canBus.Stats()
	log.Infof("[BUS][x%x] sent %v messages, dropped %v", canBus.Config().Address, stats.Sent, stats.Dropped)
}
