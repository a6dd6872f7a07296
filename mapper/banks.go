package mapper

import "math/bits"

// BankAccess gates reads and writes through a bank window.
type BankAccess byte

const (
	AccessNone BankAccess = iota
	AccessRead
	AccessReadWrite
)

// Banks divides an address range into fixed-size windows, each pointing at a
// page of an underlying ROM or RAM buffer.
//
// Page numbers wrap modulo the real page count and slot numbers wrap
// modulo the slot count, so no bank switch can point outside the buffer.
type Banks struct {
	Start, End, Size int
	Window           int
	Shift            int
	PageCount        int
	Slots            []int
	Access           []BankAccess
}

// NewBanks creates banks for the address range start..end (inclusive) over a
// buffer of capacity bytes using windows of the given size. A capacity
// smaller than the range mirrors the buffer.
func NewBanks(start, end, capacity, window int) Banks {
	if capacity < window {
		capacity = window
	}
	size := end - start
	if size >= capacity {
		size = capacity - 1
	}
	count := (size + 1) / window
	if count == 0 {
		count = 1
	}

	b := Banks{
		Start:     start,
		End:       end,
		Size:      size,
		Window:    window,
		Shift:     bits.TrailingZeros(uint(window)),
		PageCount: capacity / window,
		Slots:     make([]int, count),
		Access:    make([]BankAccess, count),
	}
	for i := range b.Slots {
		b.Slots[i] = (i * window) % capacity
		b.Access[i] = AccessReadWrite
	}
	return b
}

func (b *Banks) slot(bank int) int {
	return bank % len(b.Slots)
}

// wrap folds a page number into the buffer.
func (b *Banks) wrap(page int) int {
	page %= b.PageCount
	if page < 0 {
		page += b.PageCount
	}
	return page
}

// Set points slot bank at page.
func (b *Banks) Set(bank, page int) {
	b.Slots[b.slot(bank)] = b.wrap(page) << b.Shift
}

// SetRange points consecutive slots start..end at consecutive pages
// beginning at page.
func (b *Banks) SetRange(start, end, page int) {
	for bank := start; bank <= end; bank++ {
		b.Slots[b.slot(bank)] = b.wrap(page) << b.Shift
		page++
	}
}

// SetAccess changes the access of a single slot.
func (b *Banks) SetAccess(bank int, access BankAccess) {
	b.Access[b.slot(bank)] = access
}

// SetAccessRange changes the access of slots start..end.
func (b *Banks) SetAccessRange(start, end int, access BankAccess) {
	for bank := start; bank <= end; bank++ {
		b.SetAccess(bank, access)
	}
}

// Readable reports whether addr falls in a readable slot.
func (b *Banks) Readable(addr uint16) bool {
	a := b.Access[b.Get(addr)]
	return a == AccessRead || a == AccessReadWrite
}

// Writable reports whether addr falls in a writable slot.
func (b *Banks) Writable(addr uint16) bool {
	return b.Access[b.Get(addr)] == AccessReadWrite
}

// Last returns the number of the last page.
func (b *Banks) Last() int {
	if b.PageCount == 0 {
		return 0
	}
	return b.PageCount - 1
}

// Len returns the number of slots.
func (b *Banks) Len() int {
	return len(b.Slots)
}

// Get returns the slot addr falls in.
func (b *Banks) Get(addr uint16) int {
	return ((int(addr) & b.Size) >> b.Shift) % len(b.Slots)
}

// Page returns the page number slot bank points at.
func (b *Banks) Page(bank int) int {
	return b.Slots[b.slot(bank)] >> b.Shift
}

// Translate converts addr into an offset into the underlying buffer.
func (b *Banks) Translate(addr uint16) int {
	return b.Slots[b.Get(addr)] | int(addr)&(b.Window-1)
}
