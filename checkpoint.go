package pimc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// checkpoint.go implements the persisted-state format spec.md's Ownership
// section only gestures at ("persisted state format" as an interface note).
// The original engine persists via boost::serialization of its flat bead
// arrays (cmc.cpp's -R/checkpoint flags); this is the same idea rendered as
// a fixed-width binary record layout via encoding/binary, matching the
// pack's own preference for flat numeric encodings over a schema library.

const beadLocatorNilFlag = int32(-1)

func writeLocator(w io.Writer, b BeadLocator) error {
	slice, offset := int32(b.Slice), int32(b.Offset)
	if b.IsNil() {
		slice, offset = beadLocatorNilFlag, beadLocatorNilFlag
	}
	if err := binary.Write(w, binary.LittleEndian, slice); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, offset)
}

func readLocator(r io.Reader) (BeadLocator, error) {
	var slice, offset int32
	if err := binary.Read(r, binary.LittleEndian, &slice); err != nil {
		return XXX, err
	}
	if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
		return XXX, err
	}
	if slice == beadLocatorNilFlag {
		return XXX, nil
	}
	return bead(int(slice), int(offset)), nil
}

// Encode writes p's full bead arena and worm state to w in a fixed-width
// binary layout: a header (slice count, dimension), then per-slice bead
// records (position vector, next/prev locators), then a trailing worm
// record. The Box is not written; a decoder is expected to supply one, the
// same way the original loads positions into a pre-existing container.
func (p *Path) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(p.NumTimeSlices)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(p.Dim)); err != nil {
		return err
	}
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		row := p.beads[slice]
		if err := binary.Write(w, binary.LittleEndian, int32(len(row))); err != nil {
			return err
		}
		for offset := range row {
			bd := row[offset]
			if len(bd.pos) != p.Dim {
				return fmt.Errorf("pimc: bead %d/%d has %d coordinates, want %d", slice, offset, len(bd.pos), p.Dim)
			}
			for _, x := range bd.pos {
				if err := binary.Write(w, binary.LittleEndian, x); err != nil {
					return err
				}
			}
			if err := writeLocator(w, bd.next); err != nil {
				return err
			}
			if err := writeLocator(w, bd.prev); err != nil {
				return err
			}
		}
	}
	return p.encodeWorm(w)
}

func (p *Path) encodeWorm(w io.Writer) error {
	worm := p.Worm
	for _, loc := range []BeadLocator{worm.Head, worm.Tail, worm.Special1, worm.Special2} {
		if err := writeLocator(w, loc); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, int32(worm.Length)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(worm.Gap)); err != nil {
		return err
	}
	diagonal := int8(0)
	if worm.IsDiagonal {
		diagonal = 1
	}
	return binary.Write(w, binary.LittleEndian, diagonal)
}

// DecodePath reads a Path previously written by Encode, attaching it to
// box. The number of time slices and dimension are taken from the stream;
// box's own dimension must match.
func DecodePath(r io.Reader, box *Box) (*Path, error) {
	var numSlices, dim int32
	if err := binary.Read(r, binary.LittleEndian, &numSlices); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, err
	}
	if int(dim) != box.Dim() {
		return nil, fmt.Errorf("pimc: checkpoint dimension %d does not match box dimension %d", dim, box.Dim())
	}

	p := NewPath(box, int(numSlices))

	for slice := 0; slice < int(numSlices); slice++ {
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		row := make([]beadSlot, n)
		for offset := 0; offset < int(n); offset++ {
			pos := make([]float64, dim)
			for i := range pos {
				if err := binary.Read(r, binary.LittleEndian, &pos[i]); err != nil {
					return nil, err
				}
			}
			next, err := readLocator(r)
			if err != nil {
				return nil, err
			}
			prev, err := readLocator(r)
			if err != nil {
				return nil, err
			}
			row[offset] = beadSlot{pos: pos, next: next, prev: prev}
		}
		p.beads[slice] = row
	}

	if err := p.decodeWorm(r); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Path) decodeWorm(r io.Reader) error {
	locs := make([]BeadLocator, 4)
	for i := range locs {
		loc, err := readLocator(r)
		if err != nil {
			return err
		}
		locs[i] = loc
	}
	var length, gap int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &gap); err != nil {
		return err
	}
	var diagonal int8
	if err := binary.Read(r, binary.LittleEndian, &diagonal); err != nil {
		return err
	}
	p.Worm.Head, p.Worm.Tail, p.Worm.Special1, p.Worm.Special2 = locs[0], locs[1], locs[2], locs[3]
	p.Worm.Length, p.Worm.Gap = int(length), int(gap)
	p.Worm.IsDiagonal = diagonal != 0
	return nil
}
