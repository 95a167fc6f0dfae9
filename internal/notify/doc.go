// Package notify connects counters to the rest of the building.
//
// Outbound, counter states flow through sinks:
//   - MQTTPublisher: retained JSON state on graylogic/core/counter/{entity_id}/state
//   - TelemetrySink: counter_value points through the InfluxDB client
//   - Fanout: sends one state to several sinks, e.g. the state store and MQTT
//
// Inbound, CommandHandler subscribes to graylogic/command/counter/+ and
// routes each message to the counter registry, acknowledging the outcome
// on graylogic/ack/counter/{entity_id}.
package notify
