// Package msgs defines the messages exchanged with a bridge over MQTT.
//
// A bridge publishes LinkStatus events, accepts commands and replies with
// the sequence number of the command.
//
// Producer: swbridge
// Consumer: swmon, remote automation
package msgs
