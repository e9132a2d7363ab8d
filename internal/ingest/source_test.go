package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

const recording = `# t,x,y,left,right
0.000,500,400,0.1,0.1
0.033,501,401,0.1,0.1

garbage
0.066,502,399
{"t":0.1,"point":{"x":503,"y":400}}
`

func TestReadSamples(t *testing.T) {
	samples, stats, err := ReadSamples(strings.NewReader(recording))
	require.NoError(t, err)
	require.Len(t, samples, 4)
	assert.Equal(t, gaze.Point{X: 502, Y: 399}, samples[2].Point)
	assert.Equal(t, 0.1, samples[3].Timestamp)
	assert.Equal(t, Stats{Lines: 7, Samples: 4, Skipped: 2, Malformed: 1}, stats)
}

func TestReadCalibration(t *testing.T) {
	got, err := ReadCalibration(strings.NewReader("# target,x,y\n0,10,10\n\n1,20,20\n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[1].TargetIndex)

	_, err = ReadCalibration(strings.NewReader("0,10,10\nbad\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "line 2")
}

// blockingReader never returns data until closed.
type blockingReader struct {
	closed chan struct{}
}

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingReader) Close() error {
	close(b.closed)
	return nil
}

func TestMonitorCancel(t *testing.T) {
	r := &blockingReader{closed: make(chan struct{})}
	src := NewSource(r)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Monitor(ctx, make(chan gaze.Sample)) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}

func TestMonitorCloseEndsInput(t *testing.T) {
	r := &blockingReader{closed: make(chan struct{})}
	src := NewSource(r)

	done := make(chan error, 1)
	go func() { done <- src.Monitor(context.Background(), make(chan gaze.Sample)) }()

	require.NoError(t, src.Close())
	require.NoError(t, src.Close(), "second close is a no-op")
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}

func TestStreamClosesChannel(t *testing.T) {
	src := NewSource(io.NopCloser(strings.NewReader("0,1,1\n0.1,2,2\n")))
	out, errc := src.Stream(context.Background(), 4)

	var n int
	for range out {
		n++
	}
	assert.Equal(t, 2, n)
	assert.NoError(t, <-errc)
	assert.Equal(t, int64(2), src.Stats().Samples)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }
func (failingReader) Close() error             { return nil }

func TestMonitorReadError(t *testing.T) {
	err := NewSource(failingReader{}).Monitor(context.Background(), make(chan gaze.Sample))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestPortOptionsNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"baud", PortOptions{BaudRate: 12345}},
		{"data bits", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "mark"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) expected error", tt.opts)
			}
		})
	}
}

func TestPortOptionsEqual(t *testing.T) {
	if !(PortOptions{}).Equal(PortOptions{BaudRate: DefaultBaudRate, Parity: "none"}) {
		t.Error("defaults should equal their explicit form")
	}
	if (PortOptions{BaudRate: 9600}).Equal(PortOptions{}) {
		t.Error("different baud rates should not be equal")
	}
	if (PortOptions{Parity: "x"}).Equal(PortOptions{Parity: "x"}) {
		t.Error("invalid options are never equal")
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "odd"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.BaudRate != 9600 || mode.DataBits != 8 {
		t.Errorf("mode = %+v", mode)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want TwoStopBits", mode.StopBits)
	}
	if mode.Parity != serial.OddParity {
		t.Errorf("Parity = %v, want OddParity", mode.Parity)
	}
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile("/nonexistent/recording.csv")
	assert.Error(t, err)
}
