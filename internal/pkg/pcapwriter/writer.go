// Package pcapwriter writes packets to a pcap file from a background goroutine.
package pcapwriter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/endorses/acscan/internal/pkg/constants"
	"github.com/endorses/acscan/internal/pkg/logger"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("writer is closed")

// snapLen is the snapshot length recorded in the file header.
const snapLen = 65536

// Packet is one captured frame queued for writing.
type Packet struct {
	CaptureInfo gopacket.CaptureInfo
	Data        []byte
	LinkType    layers.LinkType
}

// Config for PCAP writer
type Config struct {
	FilePath     string        // Path to PCAP file
	BufferSize   int           // Channel buffer size
	SyncInterval time.Duration // How often to sync to disk
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		BufferSize:   constants.PcapWriteBuffer,
		SyncInterval: 5 * time.Second,
	}
}

// Writer writes queued packets to a PCAP file. The file header is written
// with the link type of the first packet.
type Writer struct {
	filePath   string
	file       *os.File
	writer     *pcapgo.Writer
	packetChan chan Packet
	done       chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     atomic.Bool
	syncTicker *time.Ticker
	header     bool
	err        error

	packetCount  atomic.Int64
	bytesWritten atomic.Int64
}

// New creates the file at config.FilePath and starts the write loop.
func New(config *Config) (*Writer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.FilePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.SyncInterval <= 0 {
		config.SyncInterval = defaults.SyncInterval
	}

	// #nosec G304 -- Path is supplied by the caller
	file, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create PCAP file: %w", err)
	}

	w := &Writer{
		filePath:   config.FilePath,
		file:       file,
		writer:     pcapgo.NewWriter(file),
		packetChan: make(chan Packet, config.BufferSize),
		done:       make(chan struct{}),
		syncTicker: time.NewTicker(config.SyncInterval),
	}

	w.wg.Add(1)
	go w.writeLoop()

	logger.Debug("Created PCAP writer", "file", config.FilePath, "buffer_size", config.BufferSize)
	return w, nil
}

// WritePacket queues pkt, blocking while the buffer is full until ctx is done.
// Data is copied, so the caller may reuse its buffer.
func (w *Writer) WritePacket(ctx context.Context, pkt Packet) error {
	if w.closed.Load() {
		return ErrClosed
	}
	pkt.Data = append([]byte(nil), pkt.Data...)

	select {
	case w.packetChan <- pkt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}
}

func (w *Writer) writeLoop() {
	defer w.wg.Done()

	for {
		select {
		case pkt, ok := <-w.packetChan:
			if !ok {
				return
			}
			if err := w.writePacketToFile(pkt); err != nil {
				w.fail(err)
				return
			}

		case <-w.syncTicker.C:
			w.mu.Lock()
			if w.file != nil {
				_ = w.file.Sync()
			}
			w.mu.Unlock()
		}
	}
}

// fail records the first write error and stops accepting packets.
func (w *Writer) fail(err error) {
	logger.Error("PCAP write failed", "error", err, "file", w.filePath)
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
	close(w.done)
}

func (w *Writer) writePacketToFile(pkt Packet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.header {
		if err := w.writeHeader(pkt.LinkType); err != nil {
			return err
		}
	}

	ci := pkt.CaptureInfo
	ci.CaptureLength = len(pkt.Data)
	if ci.Length < ci.CaptureLength {
		ci.Length = ci.CaptureLength
	}
	if err := w.writer.WritePacket(ci, pkt.Data); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}

	w.packetCount.Add(1)
	w.bytesWritten.Add(int64(len(pkt.Data)))
	return nil
}

// writeHeader must be called with mu held.
func (w *Writer) writeHeader(linkType layers.LinkType) error {
	if err := w.writer.WriteFileHeader(snapLen, linkType); err != nil {
		return fmt.Errorf("failed to write PCAP header: %w", err)
	}
	w.header = true
	return nil
}

// Close drains pending packets and closes the file. A writer that never saw a
// packet still leaves a valid, empty Ethernet capture. Close returns the first
// write error, if any. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return nil
	}

	close(w.packetChan)
	w.wg.Wait()
	w.syncTicker.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.header && w.err == nil {
		w.err = w.writeHeader(layers.LinkTypeEthernet)
	}
	if err := w.file.Sync(); err != nil {
		logger.Warn("Failed to sync PCAP file", "error", err, "file", w.filePath)
	}
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = fmt.Errorf("failed to close PCAP file: %w", err)
	}

	logger.Debug("Closed PCAP writer",
		"file", w.filePath,
		"packets", w.packetCount.Load(),
		"bytes", w.bytesWritten.Load())

	return w.err
}

// Stats returns current writer statistics
func (w *Writer) Stats() (packetCount, bytesWritten int64) {
	return w.packetCount.Load(), w.bytesWritten.Load()
}

// FilePath returns the file path being written to
func (w *Writer) FilePath() string {
	return w.filePath
}
