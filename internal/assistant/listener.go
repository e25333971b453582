package assistant

import (
	"errors"
	"net"
	"strings"
	"time"

	log "log/slog"
)

const (
	readTimeout = time.Second
	maxDatagram = 1024
)

// listenUDP receives broadcast questions until shutdown. The short read
// deadline exists only so the loop can observe the running flag; any
// other socket error is fatal for this listener alone.
func (a *Assistant) listenUDP() {
	log.Info("Listening for UDP broadcasts", "addr", a.conn.LocalAddr())

	buf := make([]byte, maxDatagram)
	for a.running.Load() {
		a.conn.SetReadDeadline(time.Now().Add(readTimeout))

		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if a.running.Load() {
				log.Error("UDP listener error", "err", err)
				a.status.CountError()
				a.bus.Publish(EventError, "udp listener: "+err.Error())
			}
			return
		}

		text := strings.TrimSpace(string(buf[:n]))
		if text == "" {
			continue
		}

		log.Info("Received question", "addr", addr, "text", text)
		a.Offer(text, SourceNetwork)
	}
}
