package utils

import (
	"net"
	"net/netip"
)

// NetAddrToIpStr returns the host part of addr without port or zone.
// IPv4-mapped IPv6 addresses are reported in their IPv4 form.
func NetAddrToIpStr(addr net.Addr) (string, error) {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		if ip, ok := netip.AddrFromSlice(tcp.IP); ok {
			return ip.Unmap().String(), nil
		}
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", err
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return ip.Unmap().WithZone("").String(), nil
	}
	return host, nil
}
