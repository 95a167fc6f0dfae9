// Package mqtt provides the MQTT bus connection for the counter service.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retained-message support
//   - Subscriptions that survive reconnects
//   - A retained online/offline status with a Last Will for crashes
//
// # Topics
//
//	graylogic/core/counter/{entity_id}/state   retained counter state
//	graylogic/command/counter/{entity_id}      service calls
//	graylogic/ack/counter/{entity_id}          service call outcome
//	graylogic/system/status                    service online/offline
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCounterCommands(), client.QoS(), handler)
//
// TLS should be enabled outside local development; credentials are checked
// by the broker ACL.
package mqtt
