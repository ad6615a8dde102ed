// Package extractor decodes link-layer frames into DNS questions. It
// dispatches Ethernet -> IPv4/IPv6 -> UDP/TCP -> DNS question parsing,
// recognizing DNS traffic on port 53 over either transport. Every decode
// failure is caught locally, increments ParseErrors, and yields no query
// for that packet -- only the capture package's ErrInvalidFormat escapes
// the pipeline's core.
package extractor

import (
	"encoding/binary"

	"github.com/activecm/tunnelhunter/capture"
	"github.com/activecm/tunnelhunter/logger"
	"github.com/activecm/tunnelhunter/model"
)

const (
	linkTypeEthernet = 1

	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD

	protocolTCP = 6
	protocolUDP = 17

	dnsPort = 53

	ethernetHeaderLen = 14
	ipv4MinHeaderLen  = 20
	ipv6HeaderLen     = 40
	udpHeaderLen      = 8
)

// Counters tracks the extractor's running decode statistics across a single
// pipeline invocation, matching spec §4.2's process-scoped counter set.
type Counters struct {
	TotalPackets int
	IPPackets    int
	UDPPackets   int
	TCPPackets   int
	DNSPackets   int
	DNSQueries   int
	ParseErrors  int
}

// Extractor decodes frames into DNSQuery records, accumulating Counters as
// it goes. It holds no cross-packet state beyond the counters, so a single
// Extractor can process an entire capture session sequentially.
type Extractor struct {
	Counters Counters
}

// New returns an Extractor with zeroed counters.
func New() *Extractor {
	return &Extractor{}
}

// Extract decodes one frame and returns the DNS queries it contains: none,
// or one per question of the single DNS message a UDP/TCP payload carries
// (usually exactly one). The orchestrator simply appends the slices across
// frames.
func (e *Extractor) Extract(frame capture.Frame) []model.DNSQuery {
	e.Counters.TotalPackets++

	if frame.LinkType != linkTypeEthernet {
		return nil
	}

	if len(frame.Data) < ethernetHeaderLen {
		e.Counters.ParseErrors++
		return nil
	}

	etherType := binary.BigEndian.Uint16(frame.Data[12:14])
	payload := frame.Data[ethernetHeaderLen:]

	var (
		proto     uint8
		srcIP     string
		dstIP     string
		transport []byte
		decodeOK  bool
	)

	switch etherType {
	case etherTypeIPv4:
		proto, srcIP, dstIP, transport, decodeOK = decodeIPv4(payload)
	case etherTypeIPv6:
		proto, srcIP, dstIP, transport, decodeOK = decodeIPv6(payload)
	default:
		return nil
	}

	if !decodeOK {
		e.Counters.ParseErrors++
		return nil
	}
	e.Counters.IPPackets++

	var (
		dnsPayload []byte
		isDNS      bool
	)

	switch proto {
	case protocolUDP:
		e.Counters.UDPPackets++
		dnsPayload, isDNS, decodeOK = decodeUDP(transport)
	case protocolTCP:
		e.Counters.TCPPackets++
		dnsPayload, isDNS, decodeOK = decodeTCP(transport)
	default:
		return nil
	}

	if !decodeOK {
		e.Counters.ParseErrors++
		return nil
	}
	if !isDNS {
		return nil
	}

	e.Counters.DNSPackets++

	queries, err := decodeDNSQueries(dnsPayload, frame.Timestamp, srcIP, dstIP)
	if err != nil {
		e.Counters.ParseErrors++
		logger.GetLogger().Debug().Err(err).Msg("dns decode error")
		return nil
	}

	e.Counters.DNSQueries += len(queries)
	return queries
}
