package fec

// Outer block code in the DVB-S arrangement: RS(204,188), 16 parity bytes
// appended to every 188-byte transport packet. Each byte is one shard of a
// systematic Reed-Solomon code, so any 16 erased bytes can be recovered.

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"

	"modcalc/consts"
)

var ErrPacketSize = errors.New("packet size does not match code")

// OuterCode holds the encoder and the code geometry.
type OuterCode struct {
	enc    reedsolomon.Encoder
	data   int
	parity int
}

// NewDVBS returns the RS(204,188) code.
func NewDVBS() (*OuterCode, error) {
	return New(consts.TSPacketSize, consts.RSParityBytes)
}

// New creates a code with the given number of data and parity bytes per block.
func New(data, parity int) (*OuterCode, error) {
	if parity < 1 {
		return nil, fmt.Errorf("rs(%d,%d): need at least one parity byte", data+parity, data)
	}
	enc, err := reedsolomon.New(data, parity)
	if err != nil {
		return nil, fmt.Errorf("rs(%d,%d): %w", data+parity, data, err)
	}
	return &OuterCode{enc: enc, data: data, parity: parity}, nil
}

func (c *OuterCode) DataBytes() int   { return c.data }
func (c *OuterCode) ParityBytes() int { return c.parity }
func (c *OuterCode) BlockBytes() int  { return c.data + c.parity }

// Rate is the fraction of each block that carries data.
func (c *OuterCode) Rate() float64 {
	return float64(c.data) / float64(c.data+c.parity)
}

// InformationRate scales a channel data rate by the code rate.
func (c *OuterCode) InformationRate(rate float64) float64 {
	return rate * c.Rate()
}

func (c *OuterCode) String() string {
	return fmt.Sprintf("RS(%d,%d)", c.BlockBytes(), c.data)
}

// Protect takes a data packet and returns the block with parity appended.
func (c *OuterCode) Protect(packet []byte) ([]byte, error) {
	if len(packet) != c.data {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPacketSize, len(packet), c.data)
	}

	block := make([]byte, c.BlockBytes())
	copy(block, packet)
	shards := c.split(block)
	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return block, nil
}

// Check reports whether the parity bytes of block match its data bytes.
func (c *OuterCode) Check(block []byte) (bool, error) {
	if len(block) != c.BlockBytes() {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrPacketSize, len(block), c.BlockBytes())
	}
	return c.enc.Verify(c.split(block))
}

// Repair rebuilds the bytes at the lost positions and returns a new block.
func (c *OuterCode) Repair(block []byte, lost []int) ([]byte, error) {
	if len(block) != c.BlockBytes() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPacketSize, len(block), c.BlockBytes())
	}

	out := make([]byte, len(block))
	copy(out, block)
	shards := c.split(out)
	for _, i := range lost {
		if i < 0 || i >= len(shards) {
			return nil, fmt.Errorf("lost position %d outside block", i)
		}
		shards[i] = nil
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	for i, s := range shards {
		out[i] = s[0]
	}
	return out, nil
}

// SelfCheck protects a null transport packet, erases the maximum number of
// bytes the code can recover, and verifies the repair.
func (c *OuterCode) SelfCheck() error {
	packet := NullPacket(c.data)
	block, err := c.Protect(packet)
	if err != nil {
		return err
	}

	damaged := make([]byte, len(block))
	copy(damaged, block)
	lost := make([]int, 0, c.parity)
	// Spread the erasures over the block, data and parity alike.
	step := c.BlockBytes() / c.parity
	for i := 0; i < c.parity; i++ {
		pos := i * step
		damaged[pos] ^= 0xFF
		lost = append(lost, pos)
	}

	repaired, err := c.Repair(damaged, lost)
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	if !bytes.Equal(repaired, block) {
		return errors.New("self-check: repaired block differs from original")
	}
	ok, err := c.Check(repaired)
	if err != nil {
		return fmt.Errorf("self-check: %w", err)
	}
	if !ok {
		return errors.New("self-check: parity mismatch after repair")
	}
	return nil
}

// NullPacket returns a padding transport packet of the given size: sync
// byte, PID 0x1FFF, payload only, 0xFF stuffing.
func NullPacket(size int) []byte {
	p := bytes.Repeat([]byte{0xFF}, size)
	if size >= 4 {
		p[0] = consts.TSSyncByte
		p[1] = byte(consts.NullPID >> 8)
		p[2] = byte(consts.NullPID & 0xFF)
		p[3] = 0x10
	}
	return p
}

// split views a block as one-byte shards sharing its backing array.
func (c *OuterCode) split(block []byte) [][]byte {
	shards := make([][]byte, len(block))
	for i := range block {
		shards[i] = block[i : i+1 : i+1]
	}
	return shards
}
