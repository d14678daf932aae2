package qcore

import "github.com/ygrebnov/qcore/qerr"

// Block is an immutable byte buffer that may share its backing storage with
// other Blocks: Slice never copies. This replaces the source's manually
// reference-counted buffer with Go's native slice-of-slice aliasing.
type Block struct {
	data []byte
}

// NewBlock wraps data as a Block. The caller must not mutate data afterwards.
func NewBlock(data []byte) Block { return Block{data: data} }

// Size returns the number of bytes in the block.
func (b Block) Size() int { return len(b.data) }

// Data returns the block's backing bytes. Callers must treat the result as
// read-only: it may be shared with other Blocks produced via Slice.
func (b Block) Data() []byte { return b.data }

// Slice returns a Block viewing b.data[offset:offset+n] (n defaults to the
// remainder of b when omitted), sharing storage with b. Out-of-range bounds
// return a Programmer-kind error.
func (b Block) Slice(offset int, n ...int) (Block, error) {
	length := len(b.data) - offset
	if len(n) > 0 {
		length = n[0]
	}
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return Block{}, qerr.New(qerr.Programmer, "Block.Slice: out of range").
			WithAttachment(offset).WithAttachment(length)
	}
	return Block{data: b.data[offset : offset+length]}, nil
}

// SlicePrintableASCII returns the leading prefix of b that is printable
// 7-bit ASCII (0x20-0x7e), bounded to at most max bytes when max is given.
func (b Block) SlicePrintableASCII(max ...int) string {
	limit := len(b.data)
	if len(max) > 0 && max[0] < limit {
		limit = max[0]
	}
	i := 0
	for i < limit {
		c := b.data[i]
		if c < 0x20 || c > 0x7e {
			break
		}
		i++
	}
	return string(b.data[:i])
}

// String returns the block's bytes as a string, without validation.
func (b Block) String() string { return string(b.data) }
