package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/link/serialport"
	"github.com/robotalks/swbridge.go/pkg/link/stream"
	"github.com/robotalks/swbridge.go/pkg/link/wsport"
	"github.com/robotalks/swbridge.go/pkg/usbiface"
)

var (
	listenAddr = ":8930"
	serialAddr string
	replayFile string
	idlePolicy = "tolerate"
)

// stepInterval is the period of the device main loop.
const stepInterval = 500 * time.Microsecond

func init() {
	flag.StringVar(&listenAddr, "listen", listenAddr, "Serve the link at ws://ADDR/link")
	flag.StringVar(&serialAddr, "port", serialAddr, "Use a serial port instead of a websocket")
	flag.StringVar(&replayFile, "replay", replayFile, "Replay reports from a YAML file instead of relaying frames")
	flag.StringVar(&idlePolicy, "idle", idlePolicy, "Idle policy when the buffer runs empty: tolerate or fault")
}

func loadReplay() []usbiface.ReplayItem {
	if replayFile == "" {
		return nil
	}
	f, err := os.Open(replayFile)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()
	items, err := usbiface.LoadReplayItems(f)
	if err != nil {
		log.Fatalf("%s: %v", replayFile, err)
	}
	return items
}

type simulator struct {
	policy link.IdlePolicy
	replay []usbiface.ReplayItem
}

func (s *simulator) leds(name string) link.LEDSetter {
	var last link.LEDs
	return link.LEDSetterFunc(func(leds link.LEDs) {
		if leds != last {
			glog.V(1).Infof("%s: LEDs %v", name, leds)
			last = leds
		}
	})
}

// run emulates one USB interface on the stream until it fails.
func (s *simulator) run(ctx context.Context, name string, rw io.ReadWriter) error {
	port := stream.New(ctx, rw)
	defer port.Close()

	endpoint := usbiface.NewEndpoint(&usbiface.ReportLogger{})
	leds := s.leds(name)
	dev := usbiface.NewDevice(port, endpoint, leds)
	dev.Scheduler.IdlePolicy = s.policy
	if s.replay != nil {
		replay, err := usbiface.NewReplay(s.replay, leds)
		if err != nil {
			return err
		}
		dev.Poller = replay
	}
	if err := dev.Boot(); err != nil {
		return err
	}
	glog.Infof("%s: booted (idle %s)", name, s.policy)

	loop := framework.NewLoop()
	loop.Interval = stepInterval
	loop.Add("device", dev).AddRunnable(usbiface.NewHost(endpoint))
	err := loop.Run(ctx)
	if fault := dev.Monitor.Err(); fault != nil {
		glog.Errorf("%s: %v", name, fault)
	}
	return err
}

func main() {
	flag.Parse()
	policy, err := link.ParseIdlePolicy(idlePolicy)
	if err != nil {
		log.Fatalln(err)
	}
	sim := &simulator{policy: policy, replay: loadReplay()}
	runner := framework.NewRunner().HandleSignals()

	if serialAddr != "" {
		conn, err := serialport.Open(serialAddr)
		if err != nil {
			log.Fatalln(err)
		}
		runner.GoFunc(serialAddr, func(ctx context.Context) error {
			return framework.RunWithContextCloser(ctx, conn, func() error {
				return sim.run(ctx, serialAddr, conn)
			})
		})
	} else {
		mux := http.NewServeMux()
		mux.Handle("/link", wsport.Handler(func(conn io.ReadWriteCloser) {
			glog.Info("link connected")
			err := sim.run(runner.Context, "ws", conn)
			glog.Infof("link disconnected: %v", err)
		}))
		server := &http.Server{Addr: listenAddr, Handler: mux}
		runner.GoFunc("http", func(ctx context.Context) error {
			return framework.RunWithContextCloser(ctx, server, server.ListenAndServe)
		})
		glog.Infof("listening on ws://%s/link", listenAddr)
	}
	if err := runner.Wait(); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}
