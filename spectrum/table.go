package spectrum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
)

var (
	ErrOutOfRange   = errors.New("slot range out of bounds")
	ErrSlotOccupied = errors.New("slot already occupied")
	ErrSlotFree     = errors.New("slot already free")
	ErrNoLinks      = errors.New("no links given")
)

// Fit selects the free-block search strategy
type Fit int

const (
	FirstFit Fit = iota
	BestFit
	LastFit
)

func (f Fit) String() string {
	switch f {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case LastFit:
		return "last-fit"
	}
	return "unknown"
}

// Block is a contiguous run of free slots
type Block struct {
	Start int
	Size  int
}

// Table tracks frequency slot occupancy per link as bitsets. A lightpath
// occupies the same contiguous slot block on every link of its route
// (spectrum continuity and contiguity).
type Table struct {
	numLinks int
	numSlots int
	words    int
	bits     [][]uint64
	occupied []int
}

func NewTable(numLinks, numSlots int) *Table {
	words := (numSlots + 63) / 64
	bits := make([][]uint64, numLinks)
	for i := range bits {
		bits[i] = make([]uint64, words)
	}
	return &Table{
		numLinks: numLinks,
		numSlots: numSlots,
		words:    words,
		bits:     bits,
		occupied: make([]int, numLinks),
	}
}

func (t *Table) NumLinks() int { return t.numLinks }
func (t *Table) NumSlots() int { return t.numSlots }

func (t *Table) checkRange(links []int, start, width int) error {
	if len(links) == 0 {
		return ErrNoLinks
	}
	if width <= 0 || start < 0 || start+width > t.numSlots {
		return fmt.Errorf("%w: start %d width %d slots %d", ErrOutOfRange, start, width, t.numSlots)
	}
	for _, l := range links {
		if l < 0 || l >= t.numLinks {
			return fmt.Errorf("%w: link %d of %d", ErrOutOfRange, l, t.numLinks)
		}
	}
	return nil
}

// IsFree reports whether the slot is free on the link
func (t *Table) IsFree(link, slot int) bool {
	return t.bits[link][slot/64]&(1<<(uint(slot)%64)) == 0
}

func (t *Table) set(link, slot int) {
	t.bits[link][slot/64] |= 1 << (uint(slot) % 64)
}

func (t *Table) clear(link, slot int) {
	t.bits[link][slot/64] &^= 1 << (uint(slot) % 64)
}

// Occupy marks [start, start+width) occupied on every link.
// The table is unchanged if any slot in the range is already taken.
func (t *Table) Occupy(links []int, start, width int) error {
	if err := t.checkRange(links, start, width); err != nil {
		return err
	}
	for _, l := range links {
		for s := start; s < start+width; s++ {
			if !t.IsFree(l, s) {
				return fmt.Errorf("%w: link %d slot %d", ErrSlotOccupied, l, s)
			}
		}
	}
	for _, l := range links {
		for s := start; s < start+width; s++ {
			t.set(l, s)
		}
		t.occupied[l] += width
	}
	return nil
}

// Release frees [start, start+width) on every link.
// The table is unchanged if any slot in the range is already free.
func (t *Table) Release(links []int, start, width int) error {
	if err := t.checkRange(links, start, width); err != nil {
		return err
	}
	for _, l := range links {
		for s := start; s < start+width; s++ {
			if t.IsFree(l, s) {
				return fmt.Errorf("%w: link %d slot %d", ErrSlotFree, l, s)
			}
		}
	}
	for _, l := range links {
		for s := start; s < start+width; s++ {
			t.clear(l, s)
		}
		t.occupied[l] -= width
	}
	return nil
}

// aggregate ORs the occupancy of the given links, i.e. the occupancy a
// lightpath routed over all of them would see
func (t *Table) aggregate(links []int) []uint64 {
	agg := make([]uint64, t.words)
	for _, l := range links {
		for w, bits := range t.bits[l] {
			agg[w] |= bits
		}
	}
	return agg
}

func freeAt(agg []uint64, slot int) bool {
	return agg[slot/64]&(1<<(uint(slot)%64)) == 0
}

// FreeBlocks lists the maximal free blocks on the aggregated occupancy of
// the given links, in slot order
func (t *Table) FreeBlocks(links []int) []Block {
	agg := t.aggregate(links)
	blocks := make([]Block, 0)
	start := -1
	for s := 0; s < t.numSlots; s++ {
		if freeAt(agg, s) {
			if start < 0 {
				start = s
			}
		} else if start >= 0 {
			blocks = append(blocks, Block{Start: start, Size: s - start})
			start = -1
		}
	}
	if start >= 0 {
		blocks = append(blocks, Block{Start: start, Size: t.numSlots - start})
	}
	return blocks
}

// FindBlock locates a free block of at least `width` slots common to all
// links, using the given fit strategy. Returns the start slot.
func (t *Table) FindBlock(links []int, width int, fit Fit) (int, bool) {
	blocks := t.FreeBlocks(links)
	switch fit {
	case FirstFit:
		for _, b := range blocks {
			if b.Size >= width {
				return b.Start, true
			}
		}
	case LastFit:
		for i := len(blocks) - 1; i >= 0; i-- {
			if blocks[i].Size >= width {
				return blocks[i].Start + blocks[i].Size - width, true
			}
		}
	case BestFit:
		bestStart, bestSize := -1, t.numSlots+1
		for _, b := range blocks {
			if b.Size >= width && b.Size < bestSize {
				bestStart, bestSize = b.Start, b.Size
			}
		}
		if bestStart >= 0 {
			return bestStart, true
		}
	}
	return 0, false
}

// Utilisation is the occupied fraction over all links
func (t *Table) Utilisation() float64 {
	total := 0
	for _, o := range t.occupied {
		total += o
	}
	return float64(total) / float64(t.numLinks*t.numSlots)
}

// LinkUtilisation is the occupied fraction of one link
func (t *Table) LinkUtilisation(link int) float64 {
	return float64(t.occupied[link]) / float64(t.numSlots)
}

// FragmentationIndex measures external fragmentation: per link,
// 1 - largest free block / free slots, averaged over links with free
// capacity. 0 means every link's free spectrum is one contiguous block.
func (t *Table) FragmentationIndex() float64 {
	sum := 0.0
	counted := 0
	for l := 0; l < t.numLinks; l++ {
		free := t.numSlots - t.occupied[l]
		if free == 0 {
			continue
		}
		largest := 0
		for _, b := range t.FreeBlocks([]int{l}) {
			if b.Size > largest {
				largest = b.Size
			}
		}
		sum += 1 - float64(largest)/float64(free)
		counted += 1
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

// Clone returns a deep copy, used to snapshot state observations
func (t *Table) Clone() *Table {
	bits := make([][]uint64, t.numLinks)
	for i := range bits {
		bits[i] = make([]uint64, t.words)
		copy(bits[i], t.bits[i])
	}
	occupied := make([]int, t.numLinks)
	copy(occupied, t.occupied)
	return &Table{
		numLinks: t.numLinks,
		numSlots: t.numSlots,
		words:    t.words,
		bits:     bits,
		occupied: occupied,
	}
}

// Key is a stable hash of the occupancy, used for state identity
func (t *Table) Key() string {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, link := range t.bits {
		for _, w := range link {
			binary.LittleEndian.PutUint64(buf, w)
			h.Write(buf)
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
