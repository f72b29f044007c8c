package oxid

/*
memory.go - RAM and ROM backing stores

RAM and ROM are flat byte stores addressed by a region-local offset. The bus
does the address decode; the stores only decide what an offset beyond their
physical size means.

RAM mirroring follows the early compact Macs: boards with less physical RAM
than the decode window (128K, 512K) alias the same bytes across the window,
boards at or above the threshold (1M and up) decode in full and treat the
unpopulated tail as open bus. Without that distinction a write into the top
of a large window wraps on to the exception vectors at address 0.
*/

// MacMirrorThreshold is the RAM size at and above which a Mac board stops
// mirroring its RAM across the 4MB window.
const MacMirrorThreshold = 1 << 20

// openBus is what an unpopulated data bus floats to.
const openBus = 0xFF

type RAM struct {
	data   []byte
	mirror bool
}

// NewRAM allocates size bytes of RAM. Offsets beyond size mirror the RAM
// when size is below mirrorThreshold; a threshold of 0 disables mirroring.
func NewRAM(size int, mirrorThreshold int) *RAM {
	return &RAM{
		data:   make([]byte, size),
		mirror: size > 0 && size < mirrorThreshold,
	}
}

func (r *RAM) Read(offset uint32) byte {
	if offset < uint32(len(r.data)) {
		return r.data[offset]
	}
	if r.mirror {
		return r.data[offset%uint32(len(r.data))]
	}
	return openBus
}

func (r *RAM) Write(offset uint32, value byte) {
	if offset < uint32(len(r.data)) {
		r.data[offset] = value
		return
	}
	if r.mirror {
		r.data[offset%uint32(len(r.data))] = value
	}
}

// Bytes exposes the physical RAM for video DMA and loaders.
func (r *RAM) Bytes() []byte {
	return r.data
}

func (r *RAM) Size() int {
	return len(r.data)
}

// Mirrored reports whether out-of-range offsets alias physical RAM.
func (r *RAM) Mirrored() bool {
	return r.mirror
}

// Clear zeroes the whole store.
func (r *RAM) Clear() {
	clear(r.data)
}

// ROM wraps its image across the whole region window, which is how a
// partially decoded ROM socket behaves.
type ROM struct {
	data []byte
}

// NewROM copies image into a new read-only store.
func NewROM(image []byte) *ROM {
	data := make([]byte, len(image))
	copy(data, image)
	return &ROM{data: data}
}

func (r *ROM) Read(offset uint32) byte {
	if len(r.data) == 0 {
		return openBus
	}
	return r.data[offset%uint32(len(r.data))]
}

func (r *ROM) Bytes() []byte {
	return r.data
}

func (r *ROM) Size() int {
	return len(r.data)
}
