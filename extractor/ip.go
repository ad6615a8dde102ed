package extractor

import (
	"net"
)

// decodeIPv4 reads a minimum 20-byte IPv4 header honoring IHL for the real
// header length, returning the transport protocol, addresses, and the
// remaining transport-layer payload.
func decodeIPv4(data []byte) (proto uint8, srcIP, dstIP string, payload []byte, ok bool) {
	if len(data) < ipv4MinHeaderLen {
		return 0, "", "", nil, false
	}

	ihl := int(data[0]&0x0F) * 4
	if ihl < ipv4MinHeaderLen || ihl > len(data) {
		return 0, "", "", nil, false
	}

	proto = data[9]
	src := net.IP(data[12:16])
	dst := net.IP(data[16:20])

	return proto, src.String(), dst.String(), data[ihl:], true
}

// decodeIPv6 reads the fixed 40-byte IPv6 header, treating NextHeader as the
// transport protocol directly -- extension headers are not chased, per
// spec §4.2.
func decodeIPv6(data []byte) (proto uint8, srcIP, dstIP string, payload []byte, ok bool) {
	if len(data) < ipv6HeaderLen {
		return 0, "", "", nil, false
	}

	proto = data[6]
	src := net.IP(data[8:24])
	dst := net.IP(data[24:40])

	return proto, src.String(), dst.String(), data[ipv6HeaderLen:], true
}
