// Command clmem-demo exercises the buffer manager end to end against the
// in-process simulation driver: a context, a growable read/write buffer,
// an append (which grows the buffer when it exceeds the current capacity)
// read back in full, and one event, sent through a synchronous publisher,
// when the append changed the capacity.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vkushnir/goclmem"
	"github.com/vkushnir/goclmem/internal/driver"
	"github.com/vkushnir/goclmem/internal/eventbus"
	"github.com/vkushnir/goclmem/internal/logging"
)

func main() {
	var (
		initSize = flag.Int("init-size", 4, "initial element count")
		appendN  = flag.Int("append", 12, "number of int32 elements to append")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	stub := driver.NewStub()
	platform := driver.Platform{
		PlatformID: 1,
		DeviceID:   1,
		Version:    driver.DeviceVersion{Major: 1, Minor: 2},
	}

	ctx, err := clmem.NewContextBuilder(stub, platform).Create()
	if err != nil {
		logger.Error("failed to create context", "error", err)
		os.Exit(1)
	}
	defer ctx.Destroy()

	metrics := clmem.NewMetrics()
	defer metrics.Stop()

	sub := eventbus.NewSyncSubscriber()
	sub.Subscribe("buffer.resized", func(e eventbus.Event) error {
		logger.Info("buffer resized", "new_capacity", e.Payload)
		return nil
	})
	pub := eventbus.NewSyncPublisher()
	pub.AddSubscriber(sub)

	buf := clmem.NewGlobalDynamicReadWriteBuffer(clmem.DefaultDynamicPolicy()).
		WithName("demo").
		WithCodec(func() clmem.Codec { return clmem.Int32Codec{} }).
		WithContext(ctx).
		WithInitSize(*initSize).
		WithObserver(clmem.NewMetricsObserver(metrics))

	if err := buf.Init(); err != nil {
		logger.Error("buffer init failed", "error", err)
		os.Exit(1)
	}
	defer buf.Destroy()

	logger.Info("buffer ready", "name", buf.Name(), "capacity", buf.Capacity())

	values := make([]int32, *appendN)
	for i := range values {
		values[i] = int32(i + 1)
	}

	capacityBefore := buf.Capacity()
	if err := buf.Append(values); err != nil {
		logger.Error("append failed", "error", err)
		os.Exit(1)
	}
	if buf.Capacity() != capacityBefore {
		pub.Publish("buffer.resized", eventbus.NewEvent(buf.Capacity(), eventbus.PriorityMedium, time.Now().UnixMilli()))
	}
	sub.ProcessEvents()

	out := make([]int32, buf.Size())
	if err := buf.ReadAll(out); err != nil {
		logger.Error("read failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("size=%d capacity=%d values=%v\n", buf.Size(), buf.Capacity(), out)

	snap := metrics.Snapshot()
	fmt.Printf("ops: read=%d write=%d resize=%d avg_latency_ns=%d\n",
		snap.ReadOps, snap.WriteOps, snap.ResizeOps, snap.AvgLatencyNs)
}
