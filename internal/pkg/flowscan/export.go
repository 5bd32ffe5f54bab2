package flowscan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/endorses/acscan/internal/pkg/pcapwriter"
	"github.com/google/gopacket"
)

// MatchedFlows returns the set of flow names in results that had a match.
func MatchedFlows(results []FlowResult) map[string]bool {
	flows := make(map[string]bool)
	for _, r := range results {
		if r.Matched() {
			flows[r.Flow] = true
		}
	}
	return flows
}

// Export copies every packet of r that belongs to one of flows, in either
// direction, to w. Packets keep their capture order and timestamps. It
// returns the number of packets written.
func Export(ctx context.Context, r io.Reader, flows map[string]bool, w *pcapwriter.Writer) (int, error) {
	source, linkType, err := openSource(r)
	if err != nil {
		return 0, err
	}

	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		data, ci, err := source.ReadPacketData()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("failed to read packet: %w", err)
		}

		packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		netLayer := packet.NetworkLayer()
		transport := packet.TransportLayer()
		if netLayer == nil || transport == nil {
			continue
		}

		netFlow, transportFlow := netLayer.NetworkFlow(), transport.TransportFlow()
		if !flows[flowKey(netFlow, transportFlow)] && !flows[flowKey(netFlow.Reverse(), transportFlow.Reverse())] {
			continue
		}

		err = w.WritePacket(ctx, pcapwriter.Packet{CaptureInfo: ci, Data: data, LinkType: linkType})
		if err != nil {
			return written, err
		}
		written++
	}

	logger.Debug("Exported matched flows",
		"flows", len(flows),
		"packets", written,
		"file", w.FilePath())

	return written, nil
}
