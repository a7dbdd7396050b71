// Package mqtt connects TickPilot to the game-client adapter through an
// MQTT broker.
//
// The adapter is a plugin running inside the game client. It publishes a
// retained UI snapshot and, optionally, a tick pulse per frame; TickPilot
// publishes simulated-input commands and chat messages back. Neither side
// waits for the other: every exchange is fire-and-forget.
//
//	TickPilot ↔ MQTT Broker ↔ game-client adapter
//
// This package manages:
//   - Connection with auto-reconnect and subscription restoration
//   - Last Will and Testament on tickpilot/system/status
//   - Publish/Subscribe with input validation and handler panic recovery
//   - The topic hierarchy (Topics)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.HostSnapshot(), 1,
//	    func(topic string, payload []byte) error {
//	        return reader.ApplyJSON(payload)
//	    })
package mqtt
