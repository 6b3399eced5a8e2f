// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"

	"github.com/Thermoquad/zenith/pkg/frsky"
	"github.com/Thermoquad/zenith/pkg/link"
	"github.com/Thermoquad/zenith/pkg/model"
	"github.com/Thermoquad/zenith/pkg/rc"
)

var (
	streamPeriod   time.Duration
	streamChannels int
	streamInputs   bool
	streamAddress  uint64
	streamSwitches switchLines
	telemetryPort  string
	telemetryBaud  int
)

const (
	reportInterval   = time.Second
	gpioConsumerName = "zenith"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run a model in real time and stream its channels over the link",
	Long: `Run the model's pipeline every --period and send the result as link
frames: CHANNELS and SWITCHES every pass, TIMER once a second when the
model has a flight timer.

Physical switches are read from GPIO lines:
  --switch A=gpiochip0:17         two position switch on line 17
  --switch B=gpiochip0:22:23      three position switch, up and down lines

CHANNELS frames received on the link set the input channels (sticks). PING
is answered with PONG.

With --telemetry, Frsky downlink frames are read from a second serial port
and forwarded as TELEMETRY once a second; RSSI alarms are logged using the
model's thresholds.`,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.Flags().DurationVar(&streamPeriod, "period", 20*time.Millisecond, "Pipeline update period")
	streamCmd.Flags().IntVar(&streamChannels, "channels", 8, "Number of output channels to send")
	streamCmd.Flags().BoolVar(&streamInputs, "inputs", false, "Also send INPUTS frames")
	streamCmd.Flags().Uint64Var(&streamAddress, "address", link.AddressBroadcast, "Address of sent frames")
	streamCmd.Flags().Var(&streamSwitches, "switch", "Switch GPIO line, SW=CHIP:LINE[:LINE] (repeatable)")
	streamCmd.Flags().StringVar(&telemetryPort, "telemetry", "", "Frsky telemetry serial port")
	streamCmd.Flags().IntVar(&telemetryBaud, "telemetry-baud", 9600, "Telemetry baud rate")
}

// switchLine maps a switch onto one (two position) or two (three position)
// GPIO lines of a chip
type switchLine struct {
	sw    rc.Switch
	chip  string
	lines []int
}

func (l switchLine) String() string {
	parts := []string{l.chip}
	for _, n := range l.lines {
		parts = append(parts, strconv.Itoa(n))
	}
	return l.sw.String() + "=" + strings.Join(parts, ":")
}

func parseSwitchLine(v string) (switchLine, error) {
	name, spec, ok := strings.Cut(v, "=")
	if !ok {
		return switchLine{}, fmt.Errorf("%q: want SW=CHIP:LINE[:LINE]", v)
	}
	sw, err := rc.ParseSwitch(strings.TrimSpace(name))
	if err != nil {
		return switchLine{}, err
	}
	if sw == rc.SwitchNone {
		return switchLine{}, fmt.Errorf("%q: switch required", v)
	}
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return switchLine{}, fmt.Errorf("%q: want SW=CHIP:LINE[:LINE]", v)
	}
	l := switchLine{sw: sw, chip: parts[0]}
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return switchLine{}, fmt.Errorf("%q: bad line %q", v, p)
		}
		l.lines = append(l.lines, n)
	}
	return l, nil
}

// switchLines is a repeatable --switch flag
type switchLines []switchLine

var _ pflag.Value = (*switchLines)(nil)

func (s *switchLines) String() string {
	parts := make([]string, len(*s))
	for i, l := range *s {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

func (s *switchLines) Set(v string) error {
	l, err := parseSwitchLine(v)
	if err != nil {
		return err
	}
	for _, have := range *s {
		if have.sw == l.sw {
			return fmt.Errorf("switch %s given twice", l.sw)
		}
	}
	*s = append(*s, l)
	return nil
}

func (s *switchLines) Type() string { return "SW=CHIP:LINE" }

// openSwitches requests the GPIO lines and returns a pipeline reading them
// into the bus. Two position switches declared momentary in the model stay
// momentary.
func openSwitches(bus *rc.SignalBus, lines switchLines) (*rc.Pipeline, func(), error) {
	p := rc.NewPipeline(bus)
	var opened []*gpiocdev.Line
	closeAll := func() {
		for _, l := range opened {
			l.Close()
		}
	}
	request := func(chip string, offset int) (*gpiocdev.Line, error) {
		l, err := gpiocdev.RequestLine(chip, offset,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithConsumer(gpioConsumerName))
		if err != nil {
			return nil, fmt.Errorf("gpio %s:%d: %w", chip, offset, err)
		}
		opened = append(opened, l)
		return l, nil
	}

	for _, sl := range lines {
		first, err := request(sl.chip, sl.lines[0])
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if len(sl.lines) == 1 {
			momentary := bus.SwitchType(sl.sw) == rc.SwitchTypeMomentary
			p.Add("switch:"+sl.sw.String(), rc.NewBiStateSwitch(bus, first, sl.sw, momentary, false))
			continue
		}
		second, err := request(sl.chip, sl.lines[1])
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		p.Add("switch:"+sl.sw.String(), rc.NewTriStateSwitch(bus, first, second, sl.sw, false))
	}
	return p, closeAll, nil
}

// streamer owns the bus while streaming. Every method runs on one goroutine.
type streamer struct {
	bus      *rc.SignalBus
	switches *rc.Pipeline
	model    *model.Model
	clock    rc.Clock
	send     func(*link.Frame) error

	address  uint64
	channels int
	inputs   bool

	telemetry *frsky.Monitor
	rssiLevel frsky.Level

	start      time.Time
	lastReport time.Time
	sendErrors int
}

func newStreamer(m *model.Model, switches *rc.Pipeline, clock rc.Clock, send func(*link.Frame) error) *streamer {
	now := clock.Now()
	return &streamer{
		bus:        m.Pipeline.Bus(),
		switches:   switches,
		model:      m,
		clock:      clock,
		send:       send,
		address:    link.AddressBroadcast,
		channels:   8,
		start:      now,
		lastReport: now,
	}
}

func (s *streamer) emit(f *link.Frame) {
	if err := s.send(f); err != nil {
		s.sendErrors++
		logger.Debug("send", "type", link.MessageName(f.Type()), "err", err)
	}
}

// tick runs one pipeline pass and sends its result
func (s *streamer) tick() {
	if s.switches != nil {
		s.switches.Run()
	}
	s.model.Pipeline.Run()

	snap := s.bus.Snapshot()
	s.emit(link.NewChannelsFrame(s.address, snap, s.channels))
	s.emit(link.NewSwitchesFrame(s.address, snap))
	if s.inputs {
		s.emit(link.NewInputsFrame(s.address, snap))
	}

	if now := s.clock.Now(); now.Sub(s.lastReport) >= reportInterval {
		s.lastReport = now
		s.report()
	}
}

// report sends the slow status frames
func (s *streamer) report() {
	if t := s.model.Timer; t != nil {
		s.emit(link.NewTimerFrame(s.address, link.TimerStatus{
			Seconds: t.Time(),
			Target:  t.Target(),
			Running: t.Running(),
		}))
	}
	if s.telemetry == nil {
		return
	}
	level := s.telemetry.RSSILevel()
	if level != s.rssiLevel {
		if level == frsky.LevelOK {
			logger.Info("telemetry RSSI ok")
		} else {
			logger.Warn("telemetry RSSI alarm", "level", level, "alive", s.telemetry.Alive())
		}
		s.rssiLevel = level
	}
	if s.telemetry.Alive() {
		f := s.telemetry.Last()
		s.emit(link.NewTelemetryFrame(s.address, link.Telemetry{A1: f.A1, A2: f.A2, RSSI: f.RSSIRx}))
	}
}

// handle reacts to a frame from the link
func (s *streamer) handle(ev linkEvent) {
	if ev.frame == nil || len(ev.anomalies) > 0 {
		return
	}
	f := ev.frame
	switch f.Type() {
	case link.MsgChannels:
		us, err := link.Channels(f)
		if err != nil {
			return
		}
		for i, v := range us {
			s.bus.SetInputChannel(rc.InputChannel(i), v)
		}
	case link.MsgPing:
		uptime := s.clock.Now().Sub(s.start).Milliseconds()
		s.emit(link.NewPong(s.address, uint64(max(uptime, 0))))
	case link.MsgSelectProfile:
		id, err := link.Profile(f)
		if err == nil && int(id) != s.model.Config.Profile.ID {
			logger.Warn("profile change requested; restart with another model file", "profile", id)
		}
	}
}

func runStream(cmd *cobra.Command, args []string) error {
	if modelPath == "" {
		return errors.New("--model is required")
	}
	if streamPeriod <= 0 {
		return fmt.Errorf("--period %s must be positive", streamPeriod)
	}
	cfg, err := model.Load(modelPath)
	if err != nil {
		return err
	}
	bus := rc.NewSignalBus(rc.DefaultTiming())
	m, err := model.Build(cfg, bus, model.Options{Logger: logger})
	if err != nil {
		return err
	}

	switches, closeSwitches, err := openSwitches(bus, streamSwitches)
	if err != nil {
		return err
	}
	defer closeSwitches()

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	r := newLinkReader(conn, connInfo, true)
	r.Start()
	defer r.Stop()

	s := newStreamer(m, switches, rc.SystemClock{}, r.Send)
	s.address = streamAddress
	s.channels = streamChannels
	s.inputs = streamInputs

	var telemetry <-chan []byte
	if telemetryPort != "" {
		tconn, err := OpenSerialConnection(telemetryPort, telemetryBaud)
		if err != nil {
			return err
		}
		defer tconn.Close()
		s.telemetry = frsky.NewMonitor(rc.SystemClock{}, m.Thresholds)
		telemetry = readChunks(cmd.Context(), tconn)
	}

	logger.Info("streaming", "model", modelPath, "stages", m.Pipeline.Len(), "conn", connInfo, "period", streamPeriod)
	ticker := time.NewTicker(streamPeriod)
	defer ticker.Stop()
	return s.run(cmd.Context(), r.Events(), telemetry, ticker.C)
}

// run multiplexes the ticker, link and telemetry onto the owning goroutine
func (s *streamer) run(ctx context.Context, events <-chan linkEvent, telemetry <-chan []byte, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped", "send_errors", s.sendErrors)
			return nil
		case <-ticks:
			s.tick()
		case ev, ok := <-events:
			if !ok {
				return errors.New("link reader stopped")
			}
			s.handle(ev)
		case chunk := <-telemetry:
			s.telemetry.Write(chunk)
		}
	}
}

// readChunks copies reads from conn into a channel until ctx ends
func readChunks(ctx context.Context, conn Connection) <-chan []byte {
	out := make(chan []byte, 16)
	go func() {
		buf := make([]byte, 64)
		for ctx.Err() == nil {
			n, err := conn.Read(buf)
			if err != nil {
				logger.Error("telemetry read", "err", err)
				return
			}
			if n == 0 {
				continue
			}
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
