// Package netcontrol exposes modem.ControlSurface over a line-oriented
// TCP protocol and advertises it via mDNS so an operator's tablet can
// find the modem on the local network without knowing its address.
package netcontrol

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/brutella/dnssd"

	"github.com/sdrmodem/omnipod-modem/internal/modem"
)

// Server accepts control connections and translates line commands into
// modem.ControlSurface calls. One line in, one line out per command:
//
//	MONITOR on|off
//	START_STATUS
//	SET_SECRET <uint32>
//	SET_SEQNO <uint32>
//	STATE?
//	MONITOR?
type Server struct {
	ctrl     *modem.ControlSurface
	listener net.Listener
	resp     dnssd.Responder
}

// Listen binds addr (host:port) and registers an mDNS service
// advertisement ("_omnipod-modem._tcp") for it.
func Listen(ctx context.Context, ctrl *modem.ControlSurface, addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netcontrol: listen %s: %w", addr, err)
	}

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		ln.Close()
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		ln.Close()
		return nil, err
	}

	resp, err := dnssd.NewResponder()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("netcontrol: dnssd responder: %w", err)
	}
	cfg := dnssd.Config{
		Name: "omnipod-modem",
		Type: "_omnipod-modem._tcp",
		Port: port,
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("netcontrol: dnssd service: %w", err)
	}
	if _, err := resp.Add(svc); err != nil {
		ln.Close()
		return nil, fmt.Errorf("netcontrol: dnssd add: %w", err)
	}
	go resp.Respond(ctx)

	return &Server{ctrl: ctrl, listener: ln, resp: resp}, nil
}

// Addr is the bound TCP address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		reply := s.dispatch(strings.TrimSpace(scanner.Text()))
		fmt.Fprintln(conn, reply)
	}
}

func (s *Server) dispatch(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ERR empty command"
	}

	switch fields[0] {
	case "MONITOR":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			return "ERR usage: MONITOR on|off"
		}
		s.ctrl.SetMonitor(fields[1] == "on")
		return "OK"
	case "START_STATUS":
		if s.ctrl.StartStatus() {
			return "OK"
		}
		return "ERR transaction already in progress"
	case "SET_SECRET":
		v, err := parseU32(fields)
		if err != nil {
			return "ERR " + err.Error()
		}
		if s.ctrl.SetSecret(v) {
			return "OK"
		}
		return "ERR not idle"
	case "SET_SEQNO":
		v, err := parseU32(fields)
		if err != nil {
			return "ERR " + err.Error()
		}
		if s.ctrl.SetSeqno(v) {
			return "OK"
		}
		return "ERR not idle"
	case "STATE?":
		return s.ctrl.GetState().String()
	case "MONITOR?":
		return strconv.FormatBool(s.ctrl.GetMonitor())
	default:
		return "ERR unknown command: " + fields[0]
	}
}

func parseU32(fields []string) (uint32, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <uint32>", fields[0])
	}
	v, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
