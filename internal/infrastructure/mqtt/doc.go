// Package mqtt connects a sensor to its broker.
//
// The client reconnects on its own and replays its subscriptions when it
// does. The sensor's retained status topic reads "online" while connected;
// the broker flips it to "offline" through the will message if the sensor
// vanishes.
//
// # Architecture
//
// MQTT is the optional fan-out bus for a sensor. Detections are published
// retained so late subscribers see the latest state of every drone, compact
// lines are published as plain events, and remote scanners may publish raw
// advertisement records that a central sensor consumes.
//
//	BLE scanner → sensor ↔ MQTT broker ↔ dashboards / other sensors
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Sensor.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Publish(topics.Detection("aa:bb:cc:dd:ee:ff"), payload, 1, true)
package mqtt
