package mqbridge

import (
	"fmt"

	zmq "github.com/pebbe/zmq4"
)

// applySocketConfig applies every recognized factory option to sock,
// mirroring the socket factory options table: endpoint binds/connects,
// identity, HWMs, PLAIN credentials, ZAP domain, REQ relaxed/correlate,
// conflate, immediate, subscriptions, and linger. Bind/connect happen
// last, after every option affecting wire behavior is set, since ZeroMQ
// applies most socket options most reliably before the transport comes
// up.
func applySocketConfig(sock *zmq.Socket, cfg *socketConfig) error {
	if cfg.identity != nil {
		if err := sock.SetIdentity(string(cfg.identity)); err != nil {
			return fmt.Errorf("mqbridge: set identity: %w", err)
		}
	}
	if cfg.sndhwm != nil {
		if err := sock.SetSndhwm(*cfg.sndhwm); err != nil {
			return fmt.Errorf("mqbridge: set sndhwm: %w", err)
		}
	}
	if cfg.rcvhwm != nil {
		if err := sock.SetRcvhwm(*cfg.rcvhwm); err != nil {
			return fmt.Errorf("mqbridge: set rcvhwm: %w", err)
		}
	}
	if cfg.plainServer != nil {
		v := 0
		if *cfg.plainServer {
			v = 1
		}
		if err := sock.SetPlainServer(v); err != nil {
			return fmt.Errorf("mqbridge: set plain server: %w", err)
		}
	}
	if cfg.plainUser != "" {
		if err := sock.SetPlainUsername(cfg.plainUser); err != nil {
			return fmt.Errorf("mqbridge: set plain username: %w", err)
		}
	}
	if cfg.plainPass != "" {
		if err := sock.SetPlainPassword(cfg.plainPass); err != nil {
			return fmt.Errorf("mqbridge: set plain password: %w", err)
		}
	}
	if cfg.zapDomain != "" {
		if err := sock.SetZapDomain(cfg.zapDomain); err != nil {
			return fmt.Errorf("mqbridge: set zap domain: %w", err)
		}
	}
	if cfg.reqRelaxed {
		if err := sock.SetReqRelaxed(true); err != nil {
			return fmt.Errorf("mqbridge: set req relaxed: %w", err)
		}
	}
	if cfg.reqCorrelate {
		if err := sock.SetReqCorrelate(true); err != nil {
			return fmt.Errorf("mqbridge: set req correlate: %w", err)
		}
	}
	if cfg.conflate {
		if err := sock.SetConflate(true); err != nil {
			return fmt.Errorf("mqbridge: set conflate: %w", err)
		}
	}
	if cfg.immediate != nil {
		if err := sock.SetImmediate(*cfg.immediate); err != nil {
			return fmt.Errorf("mqbridge: set immediate: %w", err)
		}
	}
	if cfg.linger != nil {
		if err := sock.SetLinger(*cfg.linger); err != nil {
			return fmt.Errorf("mqbridge: set linger: %w", err)
		}
	}
	for _, topic := range cfg.subscribe {
		if err := sock.SetSubscribe(topic); err != nil {
			return fmt.Errorf("mqbridge: subscribe %q: %w", topic, err)
		}
	}

	for _, addr := range cfg.binds {
		if err := sock.Bind(addr); err != nil {
			return fmt.Errorf("mqbridge: bind %q: %w", addr, err)
		}
	}
	for _, addr := range cfg.connects {
		if err := sock.Connect(addr); err != nil {
			return fmt.Errorf("mqbridge: connect %q: %w", addr, err)
		}
	}
	return nil
}
