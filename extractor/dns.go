package extractor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/activecm/tunnelhunter/model"
)

const (
	dnsHeaderLen = 12

	flagQR = 0x8000

	maxLabelLength    = 63
	pointerMarkerMask = 0xC0
	pointerOffsetMask = 0x3FFF

	// maxCompressionJumps bounds how many pointers a single name may
	// follow; combined with the backwards-only check below this makes an
	// unbounded decode loop unreachable.
	maxCompressionJumps = 128
)

var (
	errMessageTooShort = errors.New("dns message shorter than header")
	errBadLabelLength  = errors.New("invalid label length")
	errBadPointer      = errors.New("compression pointer out of bounds")
	errShortQuestion   = errors.New("question truncated before type and class")
)

// queryTypeNames maps RFC 1035 QTYPE numeric codes to the symbolic names
// spec §4.2 requires; anything absent becomes TYPE<n>. The codes themselves
// come from miekg/dns's constant table rather than being hand-copied from
// the RFC, so a transcription error here would be a compile-time mismatch
// against that package, not a silent typo.
var queryTypeNames = map[uint16]string{
	dns.TypeA:     "A",
	dns.TypeNS:    "NS",
	dns.TypeCNAME: "CNAME",
	dns.TypeSOA:   "SOA",
	dns.TypePTR:   "PTR",
	dns.TypeMX:    "MX",
	dns.TypeTXT:   "TXT",
	dns.TypeAAAA:  "AAAA",
	dns.TypeSRV:   "SRV",
	dns.TypeANY:   "ANY",
}

func queryTypeName(t uint16) string {
	if name, ok := queryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", t)
}

// decodeDNSQueries parses a DNS message's header and, if it is a query with
// qdcount > 0, each question in the question section. A malformed question
// (bad label length, out-of-bounds compression pointer, or missing type and
// class bytes) returns an error: the remaining questions are not attempted,
// and the caller counts the message as a parse error and keeps no query
// from it.
func decodeDNSQueries(msg []byte, ts time.Time, srcIP, dstIP string) ([]model.DNSQuery, error) {
	if len(msg) < dnsHeaderLen {
		return nil, errMessageTooShort
	}

	flags := binary.BigEndian.Uint16(msg[2:4])
	qdcount := binary.BigEndian.Uint16(msg[4:6])

	isQuery := flags&flagQR == 0
	if !isQuery || qdcount == 0 {
		return nil, nil
	}

	var queries []model.DNSQuery
	offset := dnsHeaderLen

	for i := 0; i < int(qdcount); i++ {
		domain, newOffset, err := decodeName(msg, offset)
		if err != nil {
			return nil, err
		}
		offset = newOffset

		if offset+4 > len(msg) {
			return nil, errShortQuestion
		}
		qtype := binary.BigEndian.Uint16(msg[offset : offset+2])
		offset += 4

		if !model.HasBaseDomain(domain) {
			continue
		}

		queries = append(queries, model.NewDNSQuery(domain, ts, srcIP, dstIP, queryTypeName(qtype), nil))
	}

	return queries, nil
}

// decodeName decodes a (possibly compressed) domain name starting at
// offset, returning the dotted-label name and the offset immediately past
// the name in the message (i.e. past the terminating zero label, or past
// the first compression pointer if one was followed). Compression pointers
// must resolve to an offset strictly within the message; a malformed length
// byte or out-of-bounds pointer returns an error.
func decodeName(msg []byte, offset int) (string, int, error) {
	var labels []string
	cursor := offset
	pointerFollowed := false
	endOffset := offset
	jumps := 0

	for {
		if cursor < 0 || cursor >= len(msg) {
			return "", 0, errBadPointer
		}

		length := int(msg[cursor])

		if length&pointerMarkerMask == pointerMarkerMask {
			if cursor+1 >= len(msg) {
				return "", 0, errBadPointer
			}
			ptr := int(binary.BigEndian.Uint16(msg[cursor:cursor+2])) & pointerOffsetMask
			if ptr >= len(msg) {
				return "", 0, errBadPointer
			}
			// a pointer must always point strictly backwards in the
			// message; this alone rules out pointer loops without a
			// separate visited-set, since each jump strictly decreases
			// the offset bound for the next one.
			if ptr >= cursor {
				return "", 0, errBadPointer
			}
			jumps++
			if jumps > maxCompressionJumps {
				return "", 0, errBadPointer
			}
			if !pointerFollowed {
				endOffset = cursor + 2
				pointerFollowed = true
			}
			cursor = ptr
			continue
		}

		if length == 0 {
			if !pointerFollowed {
				endOffset = cursor + 1
			}
			break
		}

		if length > maxLabelLength {
			return "", 0, errBadLabelLength
		}

		cursor++
		if cursor+length > len(msg) {
			return "", 0, errBadPointer
		}

		labels = append(labels, string(msg[cursor:cursor+length]))
		cursor += length
	}

	name := ""
	for _, l := range labels {
		name += l + "."
	}
	if name == "" {
		name = "."
	}

	return name, endOffset, nil
}
