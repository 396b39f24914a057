// Command viewer is a terminal client for the live counter. It connects to
// the websocket stream, animates between server ticks and renders the
// smoothed value at a fixed frame rate.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"LaborPulse/internal/animator"
	"LaborPulse/internal/domain/models"
)

const (
	frameInterval     = 50 * time.Millisecond
	reconnectDelayMin = time.Second
	reconnectDelayMax = 30 * time.Second
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/counter", "counter websocket URL")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	anim := animator.New()
	updates := make(chan models.CounterView, 16)

	go readLoop(ctx, *url, updates)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case view := <-updates:
			anim.SetTarget(view, time.Now())
		case now := <-ticker.C:
			frame := anim.Frame(now)
			if frame.Display == 0 {
				continue
			}
			marker := " "
			if frame.Pulse {
				marker = "*"
			}
			fmt.Printf("\r%s %12d  (%.2f/day)", marker, frame.Integer, anim.PerDay())
		}
	}
}

// readLoop keeps a connection alive, redialing with exponential backoff.
// Every reconnect starts with a fresh init message, so the animator target
// simply jumps forward.
func readLoop(ctx context.Context, url string, updates chan<- models.CounterView) {
	delay := reconnectDelayMin
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Printf("connect %s: %v (retrying in %v)", url, err, delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > reconnectDelayMax {
				delay = reconnectDelayMax
			}
			continue
		}
		delay = reconnectDelayMin

		if err := consume(ctx, conn, updates); err != nil && ctx.Err() == nil {
			log.Printf("stream closed: %v", err)
		}
		conn.Close()
	}
}

func consume(ctx context.Context, conn *websocket.Conn, updates chan<- models.CounterView) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg models.PushMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != models.MsgInit && msg.Type != models.MsgTick {
			continue
		}

		select {
		case updates <- msg.Data:
		default:
			// drop on backpressure, the next tick supersedes it anyway
		}
	}
}
