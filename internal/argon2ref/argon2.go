// Package argon2ref implements Argon2d, Argon2i and Argon2id (version 0x13)
// as laid out in RFC 9106. Memory filling, indexing and the BlaMka
// permutation are written here from the RFC; only BLAKE2b comes from
// golang.org/x/crypto.
package argon2ref

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Mode is the Argon2 type field y.
type Mode uint32

const (
	ModeD  Mode = 0
	ModeI  Mode = 1
	ModeID Mode = 2
)

const Version = 0x13

const (
	blockWords = 128
	blockSize  = 8 * blockWords
	slices     = 4
)

var ErrInvalidParams = errors.New("argon2ref: invalid parameters")

// Params are the Argon2 inputs besides password and salt. Memory is in KiB.
type Params struct {
	Mode           Mode
	Time           uint32
	Memory         uint32
	Lanes          uint8
	KeyLength      uint32
	Secret         []byte
	AssociatedData []byte
}

func (p Params) validate() error {
	switch {
	case p.Mode > ModeID:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidParams, p.Mode)
	case p.Time < 1:
		return fmt.Errorf("%w: time must be >= 1", ErrInvalidParams)
	case p.Lanes < 1:
		return fmt.Errorf("%w: lanes must be >= 1", ErrInvalidParams)
	case uint64(p.Memory) < 8*uint64(p.Lanes):
		return fmt.Errorf("%w: memory %d KiB is below 8*lanes", ErrInvalidParams, p.Memory)
	case p.KeyLength < 4:
		return fmt.Errorf("%w: key length must be >= 4", ErrInvalidParams)
	}
	return nil
}

type block [blockWords]uint64

type instance struct {
	mem           []block
	mode          Mode
	time          uint32
	blocks        uint32
	lanes         uint32
	laneLength    uint32
	segmentLength uint32
}

// Key derives p.KeyLength bytes from password and salt.
func Key(password, salt []byte, p Params) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	lanes := uint32(p.Lanes)
	blocks := p.Memory / (slices * lanes) * (slices * lanes)
	in := &instance{
		mem:           make([]block, blocks),
		mode:          p.Mode,
		time:          p.Time,
		blocks:        blocks,
		lanes:         lanes,
		laneLength:    blocks / lanes,
		segmentLength: blocks / lanes / slices,
	}

	h0 := initialHash(password, salt, p)
	in.fillFirstBlocks(&h0)

	for pass := uint32(0); pass < in.time; pass++ {
		for slice := uint32(0); slice < slices; slice++ {
			if in.lanes == 1 {
				in.fillSegment(pass, slice, 0)
				continue
			}
			var wg sync.WaitGroup
			for lane := uint32(0); lane < in.lanes; lane++ {
				lane := lane // per-iteration copy; go.mod targets Go 1.21 loop semantics
				wg.Add(1)
				go func() {
					defer wg.Done()
					in.fillSegment(pass, slice, lane)
				}()
			}
			wg.Wait()
		}
	}

	return in.finalize(p.KeyLength), nil
}

// initialHash returns H0 followed by eight spare bytes for the block and
// lane counters appended when the first blocks are derived.
func initialHash(password, salt []byte, p Params) [blake2b.Size + 8]byte {
	h, _ := blake2b.New512(nil)

	var params [24]byte
	binary.LittleEndian.PutUint32(params[0:], uint32(p.Lanes))
	binary.LittleEndian.PutUint32(params[4:], p.KeyLength)
	binary.LittleEndian.PutUint32(params[8:], p.Memory)
	binary.LittleEndian.PutUint32(params[12:], p.Time)
	binary.LittleEndian.PutUint32(params[16:], Version)
	binary.LittleEndian.PutUint32(params[20:], uint32(p.Mode))
	h.Write(params[:])

	var length [4]byte
	for _, field := range [][]byte{password, salt, p.Secret, p.AssociatedData} {
		binary.LittleEndian.PutUint32(length[:], uint32(len(field)))
		h.Write(length[:])
		h.Write(field)
	}

	var h0 [blake2b.Size + 8]byte
	h.Sum(h0[:0])
	return h0
}

func (in *instance) fillFirstBlocks(h0 *[blake2b.Size + 8]byte) {
	var buf [blockSize]byte
	for lane := uint32(0); lane < in.lanes; lane++ {
		binary.LittleEndian.PutUint32(h0[blake2b.Size+4:], lane)
		for j := uint32(0); j < 2; j++ {
			binary.LittleEndian.PutUint32(h0[blake2b.Size:], j)
			hashPrime(buf[:], h0[:])
			in.mem[lane*in.laneLength+j].load(buf[:])
		}
	}
}

func (in *instance) fillSegment(pass, slice, lane uint32) {
	independent := in.mode == ModeI || (in.mode == ModeID && pass == 0 && slice < slices/2)

	var address, input, zero block
	if independent {
		input[0] = uint64(pass)
		input[1] = uint64(lane)
		input[2] = uint64(slice)
		input[3] = uint64(in.blocks)
		input[4] = uint64(in.time)
		input[5] = uint64(in.mode)
	}

	start := uint32(0)
	if pass == 0 && slice == 0 {
		start = 2
	}

	laneStart := lane * in.laneLength
	for index := start; index < in.segmentLength; index++ {
		cur := laneStart + slice*in.segmentLength + index
		prev := cur - 1
		if slice == 0 && index == 0 {
			prev = laneStart + in.laneLength - 1
		}

		var rand uint64
		if independent {
			if index == start || index%blockWords == 0 {
				input[6]++
				compress(&address, &zero, &input, false)
				compress(&address, &zero, &address, false)
			}
			rand = address[index%blockWords]
		} else {
			rand = in.mem[prev][0]
		}

		ref := in.referenceIndex(rand, pass, slice, lane, index)
		compress(&in.mem[cur], &in.mem[prev], &in.mem[ref], pass > 0)
	}
}

// referenceIndex maps the pseudo-random value for one block onto an
// already computed block, following the reference set rules for the
// current pass and slice.
func (in *instance) referenceIndex(rand uint64, pass, slice, lane, index uint32) uint32 {
	refLane := uint32(rand>>32) % in.lanes
	if pass == 0 && slice == 0 {
		refLane = lane
	}
	sameLane := refLane == lane

	var area, start uint32
	if pass == 0 {
		area = slice * in.segmentLength
	} else {
		area = in.laneLength - in.segmentLength
		start = ((slice + 1) % slices) * in.segmentLength
	}
	if sameLane {
		area += index
	}
	if sameLane || index == 0 {
		area--
	}

	x := rand & 0xffffffff
	x = x * x >> 32
	y := uint64(area) * x >> 32
	rel := uint64(area) - 1 - y

	return refLane*in.laneLength + uint32((uint64(start)+rel)%uint64(in.laneLength))
}

func (in *instance) finalize(keyLength uint32) []byte {
	var c block
	for lane := uint32(0); lane < in.lanes; lane++ {
		last := &in.mem[lane*in.laneLength+in.laneLength-1]
		for i := range c {
			c[i] ^= last[i]
		}
	}

	var buf [blockSize]byte
	c.store(buf[:])

	key := make([]byte, keyLength)
	hashPrime(key, buf[:])
	return key
}

// hashPrime is the variable-length hash H' filling all of out.
func hashPrime(out, in []byte) {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(out)))

	if len(out) <= blake2b.Size {
		h, _ := blake2b.New(len(out), nil)
		h.Write(prefix[:])
		h.Write(in)
		h.Sum(out[:0])
		return
	}

	h, _ := blake2b.New512(nil)
	h.Write(prefix[:])
	h.Write(in)
	v := h.Sum(nil)

	r := (len(out)+31)/32 - 2
	n := copy(out, v[:32])
	for i := 2; i <= r; i++ {
		next := blake2b.Sum512(v)
		v = next[:]
		n += copy(out[n:], v[:32])
	}

	h, _ = blake2b.New(len(out)-n, nil)
	h.Write(v)
	h.Sum(out[n:n])
}

func (b *block) load(buf []byte) {
	for i := range b {
		b[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
}

func (b *block) store(buf []byte) {
	for i, w := range b {
		binary.LittleEndian.PutUint64(buf[8*i:], w)
	}
}
