package spectator

import (
	"testing"

	"github.com/breeze-rmm/screenbridge/internal/wire"
)

func TestIceServerConfigsDefaultsToGoogleSTUN(t *testing.T) {
	b := New(nil)
	servers := b.iceServerConfigs()
	if len(servers) != 1 || len(servers[0].URLs) != 1 {
		t.Fatalf("unexpected default servers: %+v", servers)
	}
}

func TestIceServerConfigsUsesConfigured(t *testing.T) {
	b := New([]string{"turn:example.com:3478"})
	servers := b.iceServerConfigs()
	if len(servers) != 1 || servers[0].URLs[0] != "turn:example.com:3478" {
		t.Fatalf("unexpected servers: %+v", servers)
	}
}

func TestPushWithNoSpectatorNeverDetaches(t *testing.T) {
	b := New(nil)
	if !b.Push(&wire.Packet{PTS: 1, Payload: []byte{0, 0, 0, 1, 5}}) {
		t.Fatal("expected Push to return true with no spectator attached")
	}
}
