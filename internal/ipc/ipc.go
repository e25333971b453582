// Package ipc exposes a unix-socket control channel so cohost-ctl (or
// any script) can drive the daemon: trigger push-to-talk, inject a
// question, or ask for shutdown.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Server struct {
	ln   net.Listener
	path string
}

func StartServer(path string, handler func(ControlMessage)) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}

	s := &Server{ln: ln, path: path}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handleConn(conn, handler)
		}
	}()
	return s, nil
}

func (s *Server) Close() {
	s.ln.Close()
	os.Remove(s.path)
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

func Send(path string, msg ControlMessage) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
