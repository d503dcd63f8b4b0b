package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/remote/mqtt"
)

var (
	mqttURL  = "mqtt://localhost:1883/swbridge/"
	bridgeID = "+"
)

func init() {
	if val := os.Getenv("SWB_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&bridgeID, "id", bridgeID, "Bridge ID to watch, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	mqtt.Watch(q, bridgeID, func(o mqtt.Observed) {
		switch {
		case o.Err != nil && o.Typed != nil:
			log.Printf("%s: decode error: (type_id=%x) %v", o.Topic, o.Typed.TypeID, o.Err)
		case o.Err != nil:
			log.Printf("%s: bad message: %v", o.Topic, o.Err)
		case o.Typed == nil:
			log.Printf("%s: bridge offline", o.Topic)
		default:
			log.Printf("%s: #%d [%s] %s", o.Topic, o.Typed.Sequence,
				reflect.Indirect(reflect.ValueOf(o.Msg)).Type().Name(), o.Msg.String())
		}
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	runner := framework.NewRunner().HandleSignals()
	<-runner.Context.Done()
}
