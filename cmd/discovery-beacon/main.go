/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command discovery-beacon broadcasts service announcements so nodes and the
// registry can find a peer without one being present.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/noderadar/pkg/discovery"
	"github.com/carverauto/noderadar/pkg/lifecycle"
	"github.com/carverauto/noderadar/pkg/logger"
)

var errBadPortSpec = errors.New("ports must be name=port pairs")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	service := flag.String("service", discovery.DefaultServiceName, "Service name to announce")
	ip := flag.String("ip", "", "Advertised IP (defaults to the outbound interface address)")
	ports := flag.String("ports", "stream=5005", "Comma separated name=port pairs")
	target := flag.String("target", net.JoinHostPort(net.IPv4bcast.String(), strconv.Itoa(discovery.DefaultPort)),
		"Destination address for announcements")
	interval := flag.Duration("interval", discovery.DefaultAnnounceInterval, "Announcement interval")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	ctx := context.Background()

	logConfig := logger.DefaultConfigFor("discovery-beacon")
	logConfig.Debug = logConfig.Debug || *debug

	beaconLogger, err := lifecycle.CreateComponentLogger(ctx, "discovery-beacon", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	portMap, err := parsePorts(*ports)
	if err != nil {
		return err
	}

	advertised := *ip
	if advertised == "" {
		advertised = outboundIP()
	}

	announcer := discovery.NewAnnouncer(
		discovery.Announcement{Service: *service, IP: advertised, Ports: portMap},
		discovery.WithTarget(*target),
		discovery.WithInterval(*interval),
		discovery.WithAnnouncerLogger(beaconLogger),
	)

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName:     "discovery-beacon",
		Services:        []lifecycle.Service{lifecycle.ServiceFunc(announcer.Run)},
		ShutdownTimeout: time.Second,
		Logger:          beaconLogger,
	})
}

// parsePorts reads "stream=5005,control=5006".
func parsePorts(list string) (map[string]int, error) {
	out := make(map[string]int)

	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errBadPortSpec, pair)
		}

		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("%w: %q", errBadPortSpec, pair)
		}

		out[strings.TrimSpace(name)] = port
	}

	return out, nil
}

// outboundIP picks the local address the kernel would route a public packet
// from. No traffic is sent.
func outboundIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}

	defer func() { _ = conn.Close() }()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}

	return "127.0.0.1"
}
