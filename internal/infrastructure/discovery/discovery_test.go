package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxtRecord(t *testing.T) {
	tests := []struct {
		txt   string
		key   string
		value string
	}{
		{"version=1.0.0", "version", "1.0.0"},
		{"path=/api/chat/?a=b", "path", "/api/chat/?a=b"},
		{"flag", "flag", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.txt, func(t *testing.T) {
			key, value := parseTxtRecord(tt.txt)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseServiceEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("chatbot-rag", ServiceType, Domain)
	entry.HostName = "host.local."
	entry.Port = 8000
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"version=1.0.0", "backend=sqlite"}

	svc, ok := parseServiceEntry(entry)
	require.True(t, ok)
	assert.Equal(t, "chatbot-rag", svc.InstanceName)
	assert.Equal(t, []string{"192.168.1.20"}, svc.IPs)
	assert.Equal(t, "sqlite", svc.TxtRecords["backend"])
	assert.Equal(t, "http://192.168.1.20:8000", svc.Endpoint())
}

func TestParseServiceEntry_WithoutIPv4(t *testing.T) {
	_, ok := parseServiceEntry(zeroconf.NewServiceEntry("x", ServiceType, Domain))
	assert.False(t, ok)

	_, ok = parseServiceEntry(nil)
	assert.False(t, ok)
}

func TestBuildServiceInfo(t *testing.T) {
	info := BuildServiceInfo("chatbot-rag", 8000, "1.0.0", "qdrant")

	assert.Equal(t, 8000, info.Port)
	assert.Equal(t, "qdrant", info.TxtRecords["backend"])
	assert.Empty(t, info.Endpoint())
}

func TestAdvertiser_StopWhenNotRunning(t *testing.T) {
	a := NewAdvertiser()
	assert.False(t, a.IsRunning())
	a.Stop()
}
