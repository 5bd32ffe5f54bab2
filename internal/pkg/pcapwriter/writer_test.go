package pcapwriter

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.pcap")

	writer, err := New(&Config{
		FilePath:     testFile,
		BufferSize:   100,
		SyncInterval: time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, writer)
	defer writer.Close()

	assert.Equal(t, testFile, writer.FilePath())

	_, err = os.Stat(testFile)
	assert.NoError(t, err)
}

func TestWritePacket(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.pcap")

	writer, err := New(&Config{
		FilePath:     testFile,
		BufferSize:   100,
		SyncInterval: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	pkt := createTestPacket(t, "Test packet data")
	require.NoError(t, writer.WritePacket(context.Background(), pkt))
	require.NoError(t, writer.Close())

	packets := readBack(t, testFile)
	require.Len(t, packets, 1)
	assert.Equal(t, pkt.Data, packets[0])
}

func TestWriteMultiplePackets(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_multiple.pcap")

	writer, err := New(&Config{
		FilePath:     testFile,
		BufferSize:   2,
		SyncInterval: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	numPackets := 10
	for i := 0; i < numPackets; i++ {
		require.NoError(t, writer.WritePacket(context.Background(), createTestPacket(t, "payload")))
	}
	require.NoError(t, writer.Close())

	count, bytes := writer.Stats()
	assert.Equal(t, int64(numPackets), count)
	assert.Greater(t, bytes, int64(0))

	assert.Len(t, readBack(t, testFile), numPackets)
}

func TestWritePacket_CopiesData(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_copy.pcap")

	writer, err := New(&Config{FilePath: testFile, BufferSize: 10})
	require.NoError(t, err)

	pkt := createTestPacket(t, "original")
	want := append([]byte(nil), pkt.Data...)
	require.NoError(t, writer.WritePacket(context.Background(), pkt))
	for i := range pkt.Data {
		pkt.Data[i] = 0
	}
	require.NoError(t, writer.Close())

	packets := readBack(t, testFile)
	require.Len(t, packets, 1)
	assert.Equal(t, want, packets[0])
}

func TestWritePacket_ContextCancelled(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_ctx.pcap")

	writer, err := New(&Config{FilePath: testFile, BufferSize: 1})
	require.NoError(t, err)
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With a cancelled context a send either lands in the buffer or fails
	// with the context error; it never blocks.
	for i := 0; i < 10; i++ {
		err := writer.WritePacket(ctx, createTestPacket(t, "x"))
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	writer, err := New(&Config{
		FilePath:     filepath.Join(t.TempDir(), "test_close.pcap"),
		BufferSize:   10,
		SyncInterval: time.Second,
	})
	require.NoError(t, err)

	assert.NoError(t, writer.Close())
	assert.NoError(t, writer.Close())
	assert.NoError(t, writer.Close())
}

func TestCloseWithoutPackets(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test_empty.pcap")

	writer, err := New(&Config{FilePath: testFile})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	assert.Empty(t, readBack(t, testFile))
}

func TestWriteAfterClose(t *testing.T) {
	writer, err := New(&Config{
		FilePath:     filepath.Join(t.TempDir(), "test_write_after_close.pcap"),
		BufferSize:   10,
		SyncInterval: time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.WritePacket(context.Background(), createTestPacket(t, "late"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEmptyFilePath(t *testing.T) {
	writer, err := New(&Config{BufferSize: 10, SyncInterval: time.Second})
	assert.Error(t, err)
	assert.Nil(t, writer)
	assert.Contains(t, err.Error(), "file path cannot be empty")
}

func TestNilConfig(t *testing.T) {
	writer, err := New(nil)
	assert.Error(t, err)
	assert.Nil(t, writer)

	config := DefaultConfig()
	config.FilePath = filepath.Join(t.TempDir(), "test_nil_config.pcap")
	writer, err = New(config)
	require.NoError(t, err)
	defer writer.Close()
	assert.NotNil(t, writer)
}

func TestCreateFails(t *testing.T) {
	writer, err := New(&Config{FilePath: filepath.Join(t.TempDir(), "missing", "out.pcap")})
	assert.Error(t, err)
	assert.Nil(t, writer)
}

// Helper functions

func createTestPacket(t *testing.T, payload string) Packet {
	t.Helper()

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	ethLayer := &layers.Ethernet{
		SrcMAC:       []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       []byte{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    []byte{192, 168, 1, 1},
		DstIP:    []byte{192, 168, 1, 2},
	}
	udpLayer := &layers.UDP{
		SrcPort: 40000,
		DstPort: 53,
	}
	require.NoError(t, udpLayer.SetNetworkLayerForChecksum(ipLayer))

	err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, gopacket.Payload(payload))
	require.NoError(t, err)

	data := buf.Bytes()
	return Packet{
		CaptureInfo: gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		},
		Data:     data,
		LinkType: layers.LinkTypeEthernet,
	}
}

func readBack(t *testing.T, path string) [][]byte {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	var packets [][]byte
	for {
		data, _, err := r.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return packets
		}
		require.NoError(t, err)
		packets = append(packets, data)
	}
}
