package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	streamMeterName      = "noderadar.stream"
	metricFramesSent     = "stream_frames_sent_total"
	metricPacketsSent    = "stream_packets_sent_total"
	metricBytesSent      = "stream_bytes_sent_total"
	metricEncodeLatency  = "stream_encode_latency_seconds"
	metricSendErrors     = "stream_send_errors_total"
	metricFramesReceived = "stream_frames_received_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	streamOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	streamInstruments struct {
		frames   metric.Int64Counter
		packets  metric.Int64Counter
		bytes    metric.Int64Counter
		encode   metric.Float64Histogram
		errors   metric.Int64Counter
		received metric.Int64Counter
	}
)

func initStreamMeter() {
	meter := otel.Meter(streamMeterName)

	var err error

	if streamInstruments.frames, err = meter.Int64Counter(metricFramesSent,
		metric.WithDescription("Frames handed to a transport")); err != nil {
		otel.Handle(err)
	}

	if streamInstruments.packets, err = meter.Int64Counter(metricPacketsSent,
		metric.WithDescription("Datagrams written, counting every destination")); err != nil {
		otel.Handle(err)
	}

	if streamInstruments.bytes, err = meter.Int64Counter(metricBytesSent,
		metric.WithDescription("Bytes written, counting every destination"),
		metric.WithUnit("By")); err != nil {
		otel.Handle(err)
	}

	if streamInstruments.encode, err = meter.Float64Histogram(metricEncodeLatency,
		metric.WithDescription("Time spent encoding one frame"),
		metric.WithUnit("s")); err != nil {
		otel.Handle(err)
	}

	if streamInstruments.errors, err = meter.Int64Counter(metricSendErrors,
		metric.WithDescription("Failed writes per transport")); err != nil {
		otel.Handle(err)
	}

	if streamInstruments.received, err = meter.Int64Counter(metricFramesReceived,
		metric.WithDescription("Frames decoded from a transport")); err != nil {
		otel.Handle(err)
	}
}

// RecordFrameSent counts one frame of kind that went out as packets datagrams
// totalling size bytes.
func RecordFrameSent(ctx context.Context, transport, kind string, packets, size int) {
	streamOnce.Do(initStreamMeter)

	attrs := metric.WithAttributes(attribute.String("transport", transport), attribute.String("kind", kind))

	if streamInstruments.frames != nil {
		streamInstruments.frames.Add(ctx, 1, attrs)
	}

	if streamInstruments.packets != nil && packets > 0 {
		streamInstruments.packets.Add(ctx, int64(packets), attrs)
	}

	if streamInstruments.bytes != nil && size > 0 {
		streamInstruments.bytes.Add(ctx, int64(size), attrs)
	}
}

func RecordEncodeLatency(ctx context.Context, kind string, d time.Duration) {
	streamOnce.Do(initStreamMeter)

	if streamInstruments.encode == nil {
		return
	}

	streamInstruments.encode.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
}

func RecordSendError(ctx context.Context, transport string) {
	streamOnce.Do(initStreamMeter)

	if streamInstruments.errors == nil {
		return
	}

	streamInstruments.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("transport", transport)))
}

func RecordFrameReceived(ctx context.Context, transport string) {
	streamOnce.Do(initStreamMeter)

	if streamInstruments.received == nil {
		return
	}

	streamInstruments.received.Add(ctx, 1, metric.WithAttributes(attribute.String("transport", transport)))
}
