// Package influxdb records counter values as InfluxDB time series.
//
// It wraps influxdb-client-go v2 with connection checks, batched
// non-blocking writes and health monitoring. Every counter change becomes a
// counter_value point tagged with the entity id.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) {
//	    log.Error("InfluxDB write error", "error", err)
//	})
//	client.WriteCounterValue("counter.visitors", 12, time.Now())
//
// Batch size and flush interval come from the influxdb config section.
package influxdb
