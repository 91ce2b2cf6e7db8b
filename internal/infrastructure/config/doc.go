// Package config handles loading and validating the sensor configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with REMOTEID_* environment variables
//   - Validation of required fields
//   - Default values matching the reference sensor timings
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sensor.ID)
package config
