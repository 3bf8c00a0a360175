package preprocess

// blockState enumerates the three block-skip states. Exactly one of them
// holds at any point during a scan.
type blockState int

const (
	blockOutside blockState = iota
	blockKept
	blockSuppressed
)

// BlockSkip tracks whether the scan is inside a tag-gated block and whether
// that block's content is being suppressed. A single-line directive never
// touches this state machine.
type BlockSkip struct {
	state    blockState
	openLine int
}

// Open enters a block. The block keeps its content when match is true.
func (b *BlockSkip) Open(match bool, line int) {
	if match {
		b.state = blockKept
	} else {
		b.state = blockSuppressed
	}
	b.openLine = line
}

// Close returns to the outside state. The closing `--` line itself is always
// discarded by the caller.
func (b *BlockSkip) Close() {
	b.state = blockOutside
	b.openLine = 0
}

// Inside reports whether a block is open (kept or suppressed).
func (b *BlockSkip) Inside() bool { return b.state != blockOutside }

// Suppressed reports whether the current block discards its content.
func (b *BlockSkip) Suppressed() bool { return b.state == blockSuppressed }

// OpenLine returns the line number the current block was opened at.
func (b *BlockSkip) OpenLine() int { return b.openLine }
