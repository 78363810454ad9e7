package ingest

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"biogasd/internal/config"
	"biogasd/internal/live"
)

// StartMQTT connects the live session to the broker. Configuration is
// validated up front: with any required connection setting missing this is
// a fatal startup error and no connection attempt is made. All transport
// callbacks reduce to session events, so the session stays the single
// owner of connection state.
func StartMQTT(cfg *config.Manager, session *live.Session, logger *slog.Logger) (mqtt.Client, error) {
	current := cfg.Get().MQTT
	if !current.Enabled {
		if logger != nil {
			logger.Info("mqtt ingest disabled")
		}
		return nil, nil
	}
	if current.BrokerURL == "" || current.Username == "" || current.Password == "" {
		return nil, fmt.Errorf("configuration error: missing mqtt connection settings")
	}
	if logger != nil {
		logger.Info("mqtt ingest enabled", "broker", current.BrokerURL, "topic", current.Topic)
	}

	topic := current.Topic
	opts := mqtt.NewClientOptions().
		AddBroker(current.BrokerURL).
		SetClientID(current.ClientID).
		SetUsername(current.Username).
		SetPassword(current.Password).
		SetConnectTimeout(current.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(current.ReconnectPeriod).
		SetMaxReconnectInterval(current.ReconnectPeriod)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		session.Submit(live.Event{Kind: live.EventConnected})
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if msg.Topic() != topic {
				return
			}
			session.Submit(live.Event{
				Kind:    live.EventMessage,
				Topic:   msg.Topic(),
				Payload: msg.Payload(),
				At:      time.Now().UTC(),
			})
		})
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				session.Submit(live.Event{Kind: live.EventError, Err: fmt.Errorf("failed to subscribe to topic: %w", err)})
			}
		}()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		session.Submit(live.Event{Kind: live.EventClosed, Err: err})
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		session.Submit(live.Event{Kind: live.EventReconnecting})
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			session.Submit(live.Event{Kind: live.EventError, Err: err})
		}
	}()
	return client, nil
}

// StopMQTT unsubscribes and disconnects. Safe to call from any adapter
// state; every subscribe gets its matching unsubscribe on teardown.
func StopMQTT(client mqtt.Client, cfg *config.Manager, session *live.Session, logger *slog.Logger) {
	if client == nil {
		return
	}
	topic := cfg.Get().MQTT.Topic
	if client.IsConnectionOpen() {
		if token := client.Unsubscribe(topic); token.WaitTimeout(2*time.Second) && token.Error() != nil && logger != nil {
			logger.Warn("mqtt unsubscribe failed", "err", token.Error())
		}
	}
	client.Disconnect(250)
	session.Submit(live.Event{Kind: live.EventClosed, Clean: true})
	if logger != nil {
		logger.Info("mqtt ingest stopped")
	}
}
