package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Discover 在 timeout 内浏览局域网中的问答服务
func Discover(ctx context.Context, timeout time.Duration) ([]ServiceInfo, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 10)
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// 浏览结束时 resolver 关闭 entries
	collected := make(chan []ServiceInfo, 1)
	go func() {
		var services []ServiceInfo
		for entry := range entries {
			if svc, ok := parseServiceEntry(entry); ok {
				services = append(services, svc)
			}
		}
		collected <- services
	}()

	if err := resolver.Browse(browseCtx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse services: %w", err)
	}

	<-browseCtx.Done()
	select {
	case services := <-collected:
		return services, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS browse did not finish")
	}
}

// parseServiceEntry 解析服务条目，没有 IPv4 地址时跳过
func parseServiceEntry(entry *zeroconf.ServiceEntry) (ServiceInfo, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return ServiceInfo{}, false
	}

	ips := make([]string, 0, len(entry.AddrIPv4))
	for _, ip := range entry.AddrIPv4 {
		ips = append(ips, ip.String())
	}

	txtRecords := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		if key, value := parseTxtRecord(txt); key != "" {
			txtRecords[key] = value
		}
	}

	return ServiceInfo{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          ips,
		TxtRecords:   txtRecords,
	}, true
}

// parseTxtRecord 解析 TXT 记录（格式：key=value）
func parseTxtRecord(txt string) (string, string) {
	key, value, _ := strings.Cut(txt, "=")
	return key, value
}
