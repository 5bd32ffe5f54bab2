// Package flowscan scans the payloads of captured network flows. TCP streams
// are reassembled per direction before scanning, so a pattern split across
// segments is still found; UDP payloads are scanned packet by packet on one
// session per flow.
package flowscan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/endorses/acscan/internal/pkg/ahocorasick"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/metrics"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/google/gopacket/tcpassembly"
)

// Protocol names reported in FlowResult
const (
	ProtocolTCP = "tcp"
	ProtocolUDP = "udp"
)

// pcapngMagic is the section header block type that opens a pcapng file.
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// FlowResult is the outcome for one directional flow.
type FlowResult struct {
	Flow     string   `json:"flow"`
	Protocol string   `json:"protocol"`
	Packets  int      `json:"packets"`
	Bytes    int64    `json:"bytes"`
	Indices  []int    `json:"indices"`
	Patterns []string `json:"patterns"`
}

// Matched reports whether any pattern was found in the flow.
func (r FlowResult) Matched() bool {
	return len(r.Indices) > 0
}

// Scanner scans capture files against one automaton. Every directional flow
// gets its own session, cloned from a template session at the root state.
type Scanner struct {
	automaton  *ahocorasick.Automaton
	firstMatch bool
}

// New creates a flow scanner over a.
func New(a *ahocorasick.Automaton, firstMatch bool) *Scanner {
	return &Scanner{automaton: a, firstMatch: firstMatch}
}

// flowState accumulates matches for one directional flow.
type flowState struct {
	key      string
	protocol string
	packets  int
	bytes    int64
	session  *ahocorasick.Session
	found    ahocorasick.MatchSet
}

func (f *flowState) feed(p []byte, firstMatch bool) {
	if firstMatch && f.found.Len() > 0 {
		return
	}
	f.bytes += int64(len(p))
	f.found.Merge(f.session.Execute(p))
}

// scan holds the per-capture state of one ScanPcap call.
type scan struct {
	scanner  *Scanner
	template *ahocorasick.Session
	flows    map[string]*flowState
}

func (s *scan) flow(key, protocol string) *flowState {
	f, ok := s.flows[key]
	if !ok {
		f = &flowState{
			key:      key,
			protocol: protocol,
			session:  s.template.Clone(),
			found:    ahocorasick.NewMatchSet(),
		}
		s.flows[key] = f
	}
	return f
}

func (s *scan) close() {
	for _, f := range s.flows {
		f.session.Close()
	}
	s.template.Close()
}

// flowKey names a directional flow as "src:port->dst:port".
func flowKey(netFlow, transportFlow gopacket.Flow) string {
	return fmt.Sprintf("%s:%s->%s:%s",
		netFlow.Src(), transportFlow.Src(),
		netFlow.Dst(), transportFlow.Dst())
}

// openSource detects pcap or pcapng framing and returns a packet data source
// with its link type.
func openSource(r io.Reader) (gopacket.PacketDataSource, layers.LinkType, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read capture header: %w", err)
	}

	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to open pcapng: %w", err)
		}
		return ng, ng.LinkType(), nil
	}

	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open pcap: %w", err)
	}
	return pr, pr.LinkType(), nil
}

// ScanPcap reads a pcap or pcapng capture from r and scans every TCP and UDP
// flow in it. Results are sorted by flow name. The context is checked between
// packets.
func (s *Scanner) ScanPcap(ctx context.Context, r io.Reader) ([]FlowResult, error) {
	start := time.Now()

	source, linkType, err := openSource(r)
	if err != nil {
		return nil, err
	}

	sc := &scan{
		scanner:  s,
		template: s.automaton.NewSession(s.firstMatch),
		flows:    make(map[string]*flowState),
	}
	defer sc.close()

	pool := tcpassembly.NewStreamPool(&streamFactory{scan: sc})
	assembler := tcpassembly.NewAssembler(pool)

	packetSource := gopacket.NewPacketSource(source, linkType)
	packetSource.DecodeOptions = gopacket.DecodeOptions{Lazy: true}

	packets := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		packet, err := packetSource.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warn("Capture is truncated, scanning packets read so far", "packets", packets)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read packet %d: %w", packets+1, err)
		}
		packets++

		netLayer := packet.NetworkLayer()
		if netLayer == nil {
			continue
		}
		netFlow := netLayer.NetworkFlow()

		switch transport := packet.TransportLayer().(type) {
		case *layers.TCP:
			sc.flow(flowKey(netFlow, transport.TransportFlow()), ProtocolTCP).packets++
			assembler.AssembleWithTimestamp(netFlow, transport, packet.Metadata().Timestamp)
		case *layers.UDP:
			f := sc.flow(flowKey(netFlow, transport.TransportFlow()), ProtocolUDP)
			f.packets++
			if len(transport.Payload) > 0 {
				f.feed(transport.Payload, s.firstMatch)
			}
		}
	}

	// Deliver whatever is still buffered, including streams without a SYN.
	assembler.FlushAll()

	results := make([]FlowResult, 0, len(sc.flows))
	var total int64
	matched := 0
	for _, f := range sc.flows {
		indices := f.found.Indices()
		result := FlowResult{
			Flow:     f.key,
			Protocol: f.protocol,
			Packets:  f.packets,
			Bytes:    f.bytes,
			Indices:  indices,
			Patterns: patternsFor(s.automaton, indices),
		}
		total += f.bytes
		if result.Matched() {
			matched++
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Flow < results[j].Flow
	})

	metrics.ObserveScan(metrics.SourcePcap, total, matched, nil)
	logger.Debug("Scanned capture",
		"packets", packets,
		"flows", len(results),
		"matched_flows", matched,
		"duration", time.Since(start))

	return results, nil
}

func patternsFor(a *ahocorasick.Automaton, indices []int) []string {
	if len(indices) == 0 {
		return nil
	}
	patterns := make([]string, len(indices))
	for i, idx := range indices {
		patterns[i] = a.Pattern(idx)
	}
	return patterns
}
