// mqbridgectl is a small command-line tool for exercising mqbridge
// contexts without writing Go: bind or connect one socket, then either
// send a single message, print received messages as they arrive, or
// proxy two endpoints together. It exists for manual smoke testing and
// as a living usage example, not as a supported long-term interface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	zmq "github.com/pebbe/zmq4"

	"github.com/joeycumines/go-mqbridge"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mqbridgectl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		socketType string
		endpoint   string
		subscribe  string
		sendText   string
		proxyWith  string
		timeout    time.Duration
	)

	flagSet := pflag.NewFlagSet("mqbridgectl", pflag.ContinueOnError)
	flagSet.StringVar(&socketType, "type", "req", "socket type: pair, pub, sub, req, rep, dealer, router, xpub, xsub, pull, push, stream")
	flagSet.StringVar(&endpoint, "endpoint", "", "endpoint, prefixed with '@' to bind or '>' to connect")
	flagSet.StringVar(&subscribe, "subscribe", "", "topic to subscribe (sub/xsub only)")
	flagSet.StringVar(&sendText, "send", "", "if set, send this text as a single frame and exit")
	flagSet.StringVar(&proxyWith, "proxy-with", "", "endpoint of a second socket of the same type to proxy against")
	flagSet.DurationVar(&timeout, "timeout", 0, "exit after this long in total (0 = run until interrupted)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if endpoint == "" {
		return fmt.Errorf("--endpoint is required")
	}

	typ, err := parseSocketType(socketType)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	bridge := mqbridge.NewContext()
	defer bridge.Close()

	sock, err := bridge.NewSocket(typ)
	if err != nil {
		return fmt.Errorf("creating socket: %w", err)
	}
	defer sock.Close()

	if err := mqbridge.Attach(sock, endpoint); err != nil {
		return fmt.Errorf("attaching to %s: %w", endpoint, err)
	}
	if subscribe != "" {
		if err := mqbridge.Subscribe(sock, subscribe); err != nil {
			return fmt.Errorf("subscribing to %q: %w", subscribe, err)
		}
	}

	if sendText != "" {
		if !sock.Send([]byte(sendText)) {
			return fmt.Errorf("send dropped: no ready receiver")
		}
		return nil
	}

	if proxyWith != "" {
		other, err := bridge.NewSocket(typ)
		if err != nil {
			return fmt.Errorf("creating proxy peer socket: %w", err)
		}
		defer other.Close()
		if err := mqbridge.Attach(other, proxyWith); err != nil {
			return fmt.Errorf("attaching proxy peer to %s: %w", proxyWith, err)
		}
		return mqbridge.Proxy(ctx, sock, other)
	}

	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	for {
		msg, ok := sock.Recv()
		if !ok {
			return nil
		}
		frames := make([]string, len(msg))
		for i, f := range msg {
			frames[i] = string(f)
		}
		fmt.Println(strings.Join(frames, " | "))
	}
}

func parseSocketType(s string) (zmq.Type, error) {
	switch strings.ToLower(s) {
	case "pair":
		return zmq.PAIR, nil
	case "pub":
		return zmq.PUB, nil
	case "sub":
		return zmq.SUB, nil
	case "req":
		return zmq.REQ, nil
	case "rep":
		return zmq.REP, nil
	case "dealer":
		return zmq.DEALER, nil
	case "router":
		return zmq.ROUTER, nil
	case "xpub":
		return zmq.XPUB, nil
	case "xsub":
		return zmq.XSUB, nil
	case "pull":
		return zmq.PULL, nil
	case "push":
		return zmq.PUSH, nil
	case "stream":
		return zmq.STREAM, nil
	default:
		return 0, fmt.Errorf("unrecognized socket type %q", s)
	}
}
