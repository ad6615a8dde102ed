package extractor

import "encoding/binary"

// decodeUDP reads the 8-byte UDP header and recognizes DNS traffic when
// either port is 53, returning the full datagram payload (no length framing
// beyond the header itself).
func decodeUDP(data []byte) (payload []byte, isDNS bool, ok bool) {
	if len(data) < udpHeaderLen {
		return nil, false, false
	}

	srcPort := binary.BigEndian.Uint16(data[0:2])
	dstPort := binary.BigEndian.Uint16(data[2:4])

	isDNS = srcPort == dnsPort || dstPort == dnsPort
	return data[udpHeaderLen:], isDNS, true
}

// decodeTCP reads the TCP header honoring the data offset field, recognizes
// DNS traffic by port 53, and -- when present -- strips the leading 2-byte
// length prefix DNS-over-TCP messages carry, returning exactly that many
// bytes of payload.
func decodeTCP(data []byte) (payload []byte, isDNS bool, ok bool) {
	if len(data) < 20 {
		return nil, false, false
	}

	srcPort := binary.BigEndian.Uint16(data[0:2])
	dstPort := binary.BigEndian.Uint16(data[2:4])
	dataOffset := int(data[12]>>4) * 4

	if dataOffset < 20 || dataOffset > len(data) {
		return nil, false, false
	}

	isDNS = srcPort == dnsPort || dstPort == dnsPort
	segment := data[dataOffset:]

	if !isDNS {
		return segment, false, true
	}

	if len(segment) < 2 {
		return nil, true, false
	}

	length := int(binary.BigEndian.Uint16(segment[0:2]))
	if 2+length > len(segment) {
		return nil, true, false
	}

	return segment[2 : 2+length], true, true
}
