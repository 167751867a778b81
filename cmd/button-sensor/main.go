// Command button-sensor polls a push button on a GPIO line and publishes
// press, click and long-press events to MQTT.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
	"github.com/sweeney/button-sensor/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.WithError(err).Error("fatal")
		os.Exit(1)
	}
}

func run(args []string) error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("debug logging enabled")
	}

	reader, err := gpio.Open(cfg.Driver, cfg.Button.Pin, gpio.Pull(cfg.Button.Pull), log.WithField("system", "gpio"))
	if err != nil {
		return errors.Wrap(err, "init gpio")
	}
	defer reader.Close()

	if cfg.PrintState {
		raw, err := reader.Read()
		if err != nil {
			return errors.Wrap(err, "read gpio")
		}
		fmt.Println(formatState(cfg.Button.Name, raw, cfg.activeLevel()))
		return nil
	}

	publisher := mqtt.NewRealPublisher(mqtt.Config{
		Broker:      cfg.Broker,
		ClientID:    "button-sensor-" + cfg.Button.Name,
		Button:      cfg.Button.Name,
		SendTimeout: cfg.SendTimeout,
		Logger:      log.WithField("system", "mqtt"),
	})
	defer publisher.Close()

	button := logic.NewButton(cfg.Button.Pin, cfg.activeLevel(), cfg.timing())

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
		Button: status.ButtonInfo{
			Name:        cfg.Button.Name,
			Pin:         cfg.Button.Pin,
			ActiveLevel: cfg.activeLevel(),
			Driver:      cfg.Driver,
		},
		Timing: button.Config(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.WithError(err).Warn("failed to publish startup event")
	} else {
		log.Info("published startup event")
	}

	hub := web.NewHub(web.DefaultClientBuffer, log.WithField("system", "web"))
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, hub, log.WithField("system", "web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP)
	}

	log.WithFields(log.Fields{
		"button":     cfg.Button.Name,
		"pin":        cfg.Button.Pin,
		"driver":     cfg.Driver,
		"poll":       cfg.Poll,
		"debounce":   cfg.Button.Debounce,
		"long_press": cfg.Button.LongPress,
		"max_clicks": button.Config().MaxClickCount,
		"broker":     cfg.Broker,
		"heartbeat":  cfg.Heartbeat,
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		name:       cfg.Button.Name,
		reader:     reader,
		button:     button,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		hub:        hub,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
	}
	return runLoop(l, ticker.C, sigCh)
}

// loop holds everything runLoop touches. tracker, hub and mqttStatus are optional.
type loop struct {
	name       string
	reader     gpio.Reader
	button     *logic.Button
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	hub        *web.Hub
	heartbeat  time.Duration
	now        func() time.Time
}

func runLoop(l *loop, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := l.now()
	monitor := logic.NewMonitor(startTime)

	// Events are collected during Tick and dispatched afterwards. The MQTT
	// publisher only enqueues, so a stalled broker cannot delay the next tick.
	var pending []logic.Event
	l.button.SetEventFunc(func(e logic.Event) { pending = append(pending, e) }, l.name)
	l.button.SetEventHandler(monitor, nil)
	defer func() {
		l.button.SetEventFunc(nil, nil)
		l.button.SetEventHandler(nil, nil)
	}()

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				l.updateTracker(monitor)
				event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.WithError(err).Warn("failed to publish shutdown event")
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := l.now()
			raw, err := l.reader.Read()
			if err != nil {
				log.WithError(err).Warn("gpio read error")
				continue
			}

			l.button.Tick(raw, logic.ElapsedMillis(startTime, t))

			for _, e := range pending {
				l.dispatch(t, e)
			}
			pending = pending[:0]

			if hb := monitor.CheckHeartbeat(t, l.heartbeat); hb != nil {
				log.WithFields(log.Fields{
					"uptime": hb.Uptime,
					"clicks": hb.Counts.Clicks,
					"long":   hb.Counts.LongPressBegin,
				}).Info("heartbeat")

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					l.updateTracker(monitor)
					hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.WithError(err).Warn("heartbeat publish error")
				}
			}

			// Update status tracker for HTTP consumers
			if l.tracker != nil {
				l.updateTracker(monitor)
			}
		}
	}
}

func (l *loop) dispatch(t time.Time, e logic.Event) {
	fields := log.Fields{"event": e.Type, "button": e.Param}
	if e.Type == logic.EventClick {
		fields["clicks"] = e.ClickCount
	}
	log.WithFields(fields).Info("event")

	be := mqtt.ButtonEvent{
		Timestamp: t,
		Button:    l.name,
		Pin:       l.button.Pin(),
		Event:     e,
	}
	if err := l.publisher.Publish(be); err != nil {
		// Don't crash on publish failure
		log.WithError(err).Warn("publish error")
	}

	if l.tracker != nil {
		l.tracker.RecordEvent(t, e)
	}
	if l.hub != nil {
		if frame, err := mqtt.FormatPayload(be); err == nil {
			l.hub.Broadcast(frame)
		}
	}
}

func (l *loop) updateTracker(monitor *logic.Monitor) {
	b := l.button
	l.tracker.Update(b.State(), b.Active(), b.PendingClicks(), monitor.Counts())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func formatState(name string, raw, active logic.Level) string {
	pressed := "released"
	if raw == active {
		pressed = "pressed"
	}
	return fmt.Sprintf("%s: raw=%s (%s)", name, raw, pressed)
}
