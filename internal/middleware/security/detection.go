package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

var probePatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"config.php", ".git", "etc/passwd", "<script", "union select",
}

// Detector resolves client IPs behind trusted proxies and flags requests
// that look like vulnerability probes.
type Detector struct {
	trustedProxies []*net.IPNet
	suspicious     atomic.Int64
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// IsSuspicious reports whether the path or query contains a known probe
// pattern or the method is one browsers never send.
func (d *Detector) IsSuspicious(r *http.Request) bool {
	hit := r.Method == "TRACE" || r.Method == "TRACK" || len(r.URL.RawQuery) > 2048
	if !hit {
		target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
		for _, p := range probePatterns {
			if strings.Contains(target, p) {
				hit = true
				break
			}
		}
	}
	if hit {
		d.suspicious.Add(1)
	}
	return hit
}

// SuspiciousCount is the number of flagged requests since start.
func (d *Detector) SuspiciousCount() int64 {
	return d.suspicious.Load()
}

// ExtractClientIP returns the peer address, or the first X-Forwarded-For /
// X-Real-IP address when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !d.isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
