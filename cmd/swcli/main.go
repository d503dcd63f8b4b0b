package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/swbridge.go/pkg/cli/sh"
	"github.com/robotalks/swbridge.go/pkg/env"
	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/remote"
	"github.com/robotalks/swbridge.go/pkg/remote/mqtt"
)

var remoteID string

func init() {
	env.SetupFlags()
	sh.SetupFlags()
	flag.StringVar(&remoteID, "remote", remoteID, "Drive the bridge with the ID over MQTT instead of opening the port")
}

func main() {
	flag.Parse()
	conf := env.NewConfig()

	if remoteID != "" {
		if conf.MQTTBrokerURL == "" {
			log.Fatalln("-mqtt is required with -remote")
		}
		client, err := mqtt.NewClient(conf.MQTTBrokerURL, remoteID)
		if err != nil {
			log.Fatalln(err)
		}
		if err := client.Connect(); err != nil {
			log.Fatalf("connect %s failed: %v", conf.MQTTBrokerURL, err)
		}
		defer client.Close()
		sh.New(client, remoteID).Run(flag.Args()...)
		return
	}

	// the shell drives the link directly, MQTT isn't needed.
	conf.MQTTBrokerURL = ""
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e := conf.MustNewEnv(ctx)
	defer e.Close()
	loop := framework.NewLoop()
	loop.Interval = framework.DefaultLoopInterval
	loop.Handler = remote.NewExecutor(conf.BridgeID(), e.Controller)
	go loop.Run(ctx)
	sh.New(&remote.LocalConn{Loop: loop, Timeout: sh.DefaultTimeout}, conf.Port).Run(flag.Args()...)
}
