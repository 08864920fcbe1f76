package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_place._tcp"

// Advertise announces the canvas on the local network until the returned
// server is shut down. An empty instance uses the hostname.
func Advertise(instance string, port int) (*mdns.Server, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	info := []string{"place canvas", "path=/api/place"}
	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	log.Info().Str("instance", instance).Str("service", ServiceType).Int("port", port).Msg("Advertising canvas over mDNS")
	return server, nil
}

// Browse reports host:port of every canvas answering on the local network.
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()
	err := mdns.Lookup(ServiceType, entries)
	close(entries)
	<-done
	return err
}
