// Package config loads the counter service configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// GRAYLOGIC_* environment variables (database path, MQTT host, port and
// credentials, InfluxDB token, log level). Validate reports every problem
// in one error.
//
// The counter block is kept as a raw yaml.Node so the counter package can
// tell a missing block from a null, scalar or empty one:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	counters, err := counter.ParseConfig(&cfg.Counter)
//
// Put secrets in the environment, not the file.
package config
