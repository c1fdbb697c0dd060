package platform_test

import (
	"context"
	"net"
	"testing"

	"github.com/dmksnnk/skirmish/internal/platform"
)

func TestAllInterfacesListener(t *testing.T) {
	var l platform.AllInterfacesListener
	ln, err := l.ListenTCP(context.Background(), 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	if !addr.IP.IsUnspecified() {
		t.Errorf("want unspecified IP, got %s", addr.IP)
	}
	if addr.Port == 0 {
		t.Error("want assigned port")
	}

	t.Run("port in use", func(t *testing.T) {
		_, err := l.ListenTCP(context.Background(), addr.Port)
		if err == nil {
			t.Error("want error binding a used port")
		}
	})
}

func TestOutboundIP(t *testing.T) {
	t.Run("invalid probe falls back", func(t *testing.T) {
		got := platform.OutboundIP(context.Background(), "not an address")
		if got != platform.FallbackHost {
			t.Errorf("want %q, got %q", platform.FallbackHost, got)
		}
	})

	t.Run("loopback probe", func(t *testing.T) {
		got := platform.OutboundIP(context.Background(), "127.0.0.1:9")
		if got != "127.0.0.1" {
			t.Errorf("want 127.0.0.1, got %q", got)
		}
	})
}
