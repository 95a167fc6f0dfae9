package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes.
const (
	TopicPrefix       = "graylogic"
	TopicPrefixCore   = TopicPrefix + "/core"
	TopicPrefixSystem = TopicPrefix + "/system"

	// TopicPrefixCommand is the base for service calls addressed to an entity.
	TopicPrefixCommand = TopicPrefix + "/command"
)

// Topics provides builders for the counter service's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.CounterState("counter.visitors")
//	// Returns: "graylogic/core/counter/counter.visitors/state"
type Topics struct{}

// CounterState returns the retained state topic for a counter entity.
//
// Example: graylogic/core/counter/counter.visitors/state
func (Topics) CounterState(entityID string) string {
	return fmt.Sprintf("%s/counter/%s/state", TopicPrefixCore, entityID)
}

// CounterCommand returns the topic on which service calls for a counter
// entity are received.
//
// Example: graylogic/command/counter/counter.visitors
func (Topics) CounterCommand(entityID string) string {
	return fmt.Sprintf("%s/counter/%s", TopicPrefixCommand, entityID)
}

// CounterAck returns the topic on which the outcome of a counter command
// is reported.
//
// Example: graylogic/ack/counter/counter.visitors
func (Topics) CounterAck(entityID string) string {
	return fmt.Sprintf("%s/ack/counter/%s", TopicPrefix, entityID)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllCounterStates matches every counter state topic.
//
// Pattern: graylogic/core/counter/+/state
func (Topics) AllCounterStates() string {
	return TopicPrefixCore + "/counter/+/state"
}

// AllCounterCommands matches every counter command topic.
//
// Pattern: graylogic/command/counter/+
func (Topics) AllCounterCommands() string {
	return TopicPrefixCommand + "/counter/+"
}

// EntityFromCommandTopic extracts the entity id from a topic built by
// CounterCommand. It reports false for any other topic.
func (Topics) EntityFromCommandTopic(topic string) (string, bool) {
	entityID, ok := strings.CutPrefix(topic, TopicPrefixCommand+"/counter/")
	if !ok || entityID == "" || strings.Contains(entityID, "/") {
		return "", false
	}
	return entityID, true
}
