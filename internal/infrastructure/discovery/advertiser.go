// Package discovery 在局域网内广播与发现问答服务
package discovery

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/log"
	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType mDNS 服务类型
	ServiceType = "_ragchat._tcp"
	// Domain mDNS 域
	Domain = "local."
)

// ServiceInfo 广播或发现的服务信息
type ServiceInfo struct {
	InstanceName string            `json:"instance_name"`
	HostName     string            `json:"host_name,omitempty"`
	Port         int               `json:"port"`
	IPs          []string          `json:"ips,omitempty"`
	TxtRecords   map[string]string `json:"txt_records,omitempty"`
}

// Endpoint 首个 IPv4 地址拼接端口，没有地址时为空
func (s ServiceInfo) Endpoint() string {
	if len(s.IPs) == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", s.IPs[0], s.Port)
}

// BuildServiceInfo 构建服务信息
func BuildServiceInfo(instanceName string, port int, version, backend string) ServiceInfo {
	return ServiceInfo{
		InstanceName: instanceName,
		Port:         port,
		TxtRecords: map[string]string{
			"version": version,
			"backend": backend,
			"path":    "/api/chat/",
		},
	}
}

// Advertiser mDNS 服务广播器
type Advertiser struct {
	mu      sync.Mutex
	server  *zeroconf.Server
	running bool
	logger  *slog.Logger
}

// NewAdvertiser 创建广播器
func NewAdvertiser() *Advertiser {
	return &Advertiser{
		logger: log.NewModuleLogger("discovery", "advertiser"),
	}
}

// Start 开始广播服务
func (a *Advertiser) Start(info ServiceInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("advertiser is already running")
	}

	txtRecords := make([]string, 0, len(info.TxtRecords))
	for k, v := range info.TxtRecords {
		txtRecords = append(txtRecords, fmt.Sprintf("%s=%s", k, v))
	}

	// 在全部网卡上广播
	server, err := zeroconf.Register(info.InstanceName, ServiceType, Domain, info.Port, txtRecords, nil)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	a.running = true

	a.logger.Info("mDNS advertiser started",
		"instance", info.InstanceName,
		"service", ServiceType,
		"port", info.Port,
	)
	return nil
}

// Stop 停止广播
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.running = false

	a.logger.Info("mDNS advertiser stopped")
}

// IsRunning 是否正在广播
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
