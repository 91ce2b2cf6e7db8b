// Package scanner delivers raw Bluetooth advertisements to the pipeline.
//
// The radio itself is outside this process. A capture helper (a Bluetooth
// dongle bridge, an ESP32 in pass-through mode, or a remote sensor) emits
// one JSON object per advertisement:
//
//	{"addr":"60:60:1f:aa:bb:cc","rssi":-71,"payload":"1e16faff0d2a0012..."}
//
// ReaderSource reads these lines from stdin, a file or a serial device.
// MQTTSource receives the same objects from an MQTT topic.
package scanner
