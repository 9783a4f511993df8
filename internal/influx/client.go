// Package influx reads room sensor readings out of InfluxDB.
package influx

import (
	"context"
	"fmt"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Reading is the latest temperature/humidity pair for one device.
// Either value may be missing when the sensor has not reported it.
type Reading struct {
	Device      string
	Temperature *float64
	Humidity    *float64
	At          time.Time
}

type Client struct {
	client influxdb2.Client
	query  api.QueryAPI
	bucket string
}

func New(cfg Config) *Client {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Client{
		client: client,
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
	}
}

func (c *Client) Close() {
	c.client.Close()
}

const lastValueFlux = `from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r["_measurement"] == "Meter")
  |> filter(fn: (r) => r["_field"] == %q)
  |> keep(columns: ["_time", "_value", "device_name"])
  |> group(columns: ["device_name"])
  |> last()`

// RoomData returns the last reading per device over the past hour.
func (c *Client) RoomData(ctx context.Context) ([]Reading, error) {
	byDevice := map[string]*Reading{}

	if err := c.collect(ctx, "temperature", byDevice, func(r *Reading, v float64) {
		r.Temperature = &v
	}); err != nil {
		return nil, err
	}
	if err := c.collect(ctx, "humidity", byDevice, func(r *Reading, v float64) {
		r.Humidity = &v
	}); err != nil {
		return nil, err
	}

	out := make([]Reading, 0, len(byDevice))
	for _, r := range byDevice {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out, nil
}

func (c *Client) collect(ctx context.Context, field string, byDevice map[string]*Reading, set func(*Reading, float64)) error {
	result, err := c.query.Query(ctx, fmt.Sprintf(lastValueFlux, c.bucket, field))
	if err != nil {
		return fmt.Errorf("influx query %s: %w", field, err)
	}
	defer result.Close()

	for result.Next() {
		rec := result.Record()
		device, _ := rec.ValueByKey("device_name").(string)
		if device == "" {
			continue
		}
		value, ok := rec.Value().(float64)
		if !ok {
			continue
		}
		r := byDevice[device]
		if r == nil {
			r = &Reading{Device: device, At: rec.Time()}
			byDevice[device] = r
		}
		set(r, value)
	}
	return result.Err()
}
