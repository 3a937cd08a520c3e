package webostv

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strings"
	"time"
)

const (
	ssdpMulticastAddr = "239.255.255.250:1900"
	ssdpSearchTarget  = "urn:lge-com:service:webos-second-screen:1"
	defaultDiscoverWindow = 3 * time.Second
)

// DiscoveredTV is one SSDP M-SEARCH response, deduplicated by source
// host. LG webOS TVs respond to the webos-second-screen search target
// over plain UDP multicast — a different discovery mechanism from
// mDNS/DNS-SD, so it is implemented directly against net rather than a
// general-purpose service-discovery library.
type DiscoveredTV struct {
	Host     string
	Location string
	USN      string
	Server   string
}

// Discover broadcasts an SSDP M-SEARCH for webOS TVs and collects
// responses for window (spec.md default: 3s). A zero window uses the
// default. Discover returns whatever it collected if ctx is canceled
// or the window elapses; it never blocks past either.
func Discover(ctx context.Context, window time.Duration) ([]DiscoveredTV, error) {
	if window <= 0 {
		window = defaultDiscoverWindow
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("ssdp discovery: %w", err)
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("ssdp discovery: %w", err)
	}

	request := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpMulticastAddr,
		`MAN: "ssdp:discover"`,
		"MX: 2",
		"ST: " + ssdpSearchTarget,
		"", "",
	}, "\r\n")
	if _, err := conn.WriteTo([]byte(request), addr); err != nil {
		return nil, fmt.Errorf("ssdp discovery: send M-SEARCH: %w", err)
	}

	deadline := time.Now().Add(window)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	seen := make(map[string]bool)
	var results []DiscoveredTV
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return results, nil
		default:
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			// Read deadline exceeded, or socket closed: the collection
			// window is over either way.
			return results, nil
		}

		host, _, err := net.SplitHostPort(from.String())
		if err != nil {
			host = from.String()
		}
		if seen[host] {
			continue
		}

		headers, err := parseSSDPResponse(buf[:n])
		if err != nil {
			continue
		}
		seen[host] = true
		results = append(results, DiscoveredTV{
			Host:     host,
			Location: headers.Get("Location"),
			USN:      headers.Get("Usn"),
			Server:   headers.Get("Server"),
		})
	}
}

func parseSSDPResponse(data []byte) (textproto.MIMEHeader, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "HTTP/1.1 200") && !strings.HasPrefix(line, "HTTP/1.0 200") {
		return nil, fmt.Errorf("not an SSDP 200 response: %q", line)
	}
	tp := textproto.NewReader(reader)
	headers, err := tp.ReadMIMEHeader()
	if headers != nil {
		return headers, nil
	}
	return nil, err
}
