package flowscan

import (
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/google/gopacket"
	"github.com/google/gopacket/tcpassembly"
)

// streamFactory creates one tcpassembly stream per TCP direction. The
// assembler is driven from the ScanPcap loop, so streams are fed
// synchronously and need no goroutines of their own.
type streamFactory struct {
	scan *scan
}

// New implements tcpassembly.StreamFactory.
func (f *streamFactory) New(netFlow, transportFlow gopacket.Flow) tcpassembly.Stream {
	return &tcpStream{
		flow:       f.scan.flow(flowKey(netFlow, transportFlow), ProtocolTCP),
		firstMatch: f.scan.scanner.firstMatch,
	}
}

// tcpStream feeds reassembled bytes of one direction through its flow's session.
type tcpStream struct {
	flow       *flowState
	firstMatch bool
	skipped    int
}

// Reassembled implements tcpassembly.Stream.
func (s *tcpStream) Reassembled(reassembly []tcpassembly.Reassembly) {
	for _, r := range reassembly {
		if r.Skip != 0 {
			// Bytes were lost (-1: stream start not seen); a match spanning
			// the gap cannot be trusted.
			if r.Skip > 0 {
				s.skipped += r.Skip
			}
			s.flow.session.Reset()
		}
		if len(r.Bytes) > 0 {
			s.flow.feed(r.Bytes, s.firstMatch)
		}
	}
}

// ReassemblyComplete implements tcpassembly.Stream.
func (s *tcpStream) ReassemblyComplete() {
	if s.skipped > 0 {
		logger.Debug("TCP stream had gaps",
			"flow", s.flow.key,
			"skipped_bytes", s.skipped)
	}
}
