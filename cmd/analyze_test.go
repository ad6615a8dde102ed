package cmd

import (
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activecm/tunnelhunter/config"
	"github.com/activecm/tunnelhunter/pipeline"
	"github.com/activecm/tunnelhunter/report"
)

const (
	globalHeaderLen   = 24
	recordHeaderLen   = 16
	ethernetHeaderLen = 14
	ipv4MinHeaderLen  = 20
	udpHeaderLen      = 8
	dnsHeaderLen      = 12
	etherTypeIPv4     = 0x0800
	protocolUDP       = 17
	dnsPort           = 53
)

// buildCapture assembles a minimal classic-pcap file carrying one A query
// per domain, mirroring pipeline_test.go's fixture builder -- duplicated
// here since it is unexported in that package.
func buildCapture(domains []string) []byte {
	h := make([]byte, globalHeaderLen)
	binary.BigEndian.PutUint32(h[0:4], 0xA1B2C3D4)
	binary.BigEndian.PutUint16(h[4:6], 2)
	binary.BigEndian.PutUint16(h[6:8], 4)
	binary.BigEndian.PutUint32(h[20:24], 1)

	contents := h
	src := net.IPv4(10, 0, 0, 1)
	dst := net.IPv4(10, 0, 0, 53)

	for i, domain := range domains {
		frame := buildDNSQueryFrame(domain, src, dst)
		recHeader := make([]byte, recordHeaderLen)
		binary.BigEndian.PutUint32(recHeader[0:4], uint32(1700000000+i))
		binary.BigEndian.PutUint32(recHeader[8:12], uint32(len(frame)))
		binary.BigEndian.PutUint32(recHeader[12:16], uint32(len(frame)))
		contents = append(contents, recHeader...)
		contents = append(contents, frame...)
	}
	return contents
}

func buildDNSQueryFrame(domain string, src, dst net.IP) []byte {
	var name []byte
	start := 0
	for i := 0; i <= len(domain); i++ {
		if i == len(domain) || domain[i] == '.' {
			label := domain[start:i]
			name = append(name, byte(len(label)))
			name = append(name, []byte(label)...)
			start = i + 1
		}
	}
	name = append(name, 0)

	dnsMsg := make([]byte, dnsHeaderLen)
	binary.BigEndian.PutUint16(dnsMsg[0:2], 0x1234)
	binary.BigEndian.PutUint16(dnsMsg[4:6], 1)
	dnsMsg = append(dnsMsg, name...)
	qtype := make([]byte, 4)
	binary.BigEndian.PutUint16(qtype[0:2], 1)
	binary.BigEndian.PutUint16(qtype[2:4], 1)
	dnsMsg = append(dnsMsg, qtype...)

	udp := make([]byte, udpHeaderLen+len(dnsMsg))
	binary.BigEndian.PutUint16(udp[0:2], 40000)
	binary.BigEndian.PutUint16(udp[2:4], dnsPort)
	binary.BigEndian.PutUint16(udp[4:6], uint16(len(udp)))
	copy(udp[udpHeaderLen:], dnsMsg)

	ip := make([]byte, ipv4MinHeaderLen+len(udp))
	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(len(ip)))
	ip[9] = protocolUDP
	copy(ip[12:16], src.To4())
	copy(ip[16:20], dst.To4())
	copy(ip[ipv4MinHeaderLen:], udp)

	eth := make([]byte, ethernetHeaderLen+len(ip))
	binary.BigEndian.PutUint16(eth[12:14], etherTypeIPv4)
	copy(eth[ethernetHeaderLen:], ip)

	return eth
}

func TestRunAnalyzeCmdProducesReport(t *testing.T) {
	afs := afero.NewMemMapFs()
	domains := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.tunnel-test.example",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb.tunnel-test.example",
	}
	require.NoError(t, afero.WriteFile(afs, "/capture.pcap", buildCapture(domains), 0o644))

	envelope, err := RunAnalyzeCmd(context.Background(), afs, config.Default(), "/capture.pcap")
	require.NoError(t, err)

	assert.Equal(t, 1, envelope.TotalDomainsAnalyzed)
	assert.Contains(t, envelope.Assessments, "tunnel-test.example")
	assert.NotEmpty(t, envelope.RunID)
}

func TestRunAnalyzeCmdReturnsErrorForMissingFile(t *testing.T) {
	afs := afero.NewMemMapFs()
	_, err := RunAnalyzeCmd(context.Background(), afs, config.Default(), "/missing.pcap")
	require.Error(t, err)
}

func TestWriteReportToFile(t *testing.T) {
	afs := afero.NewOsFs()
	dir := t.TempDir()
	outPath := dir + "/report.json"

	err := writeReport(outPath, report.New(pipeline.Report{TotalDomainsAnalyzed: 0, Assessments: map[string]pipeline.AssessmentJSON{}}))
	require.NoError(t, err)

	contents, err := afero.ReadFile(afs, outPath)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "total_domains_analyzed")
}
