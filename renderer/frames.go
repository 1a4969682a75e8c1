package renderer

// Fence is a CPU-waitable GPU-completion signal. Wait blocks until the work
// the fence was submitted with has finished; Reset returns it to the
// unsignaled state before the next submission.
type Fence interface {
	Wait() error
	Reset() error
}

// FrameSync coordinates the CPU/GPU handoff across a fixed number of
// concurrently in-flight frames. Each slot owns one fence; the fence wait in
// WaitCurrent is the only backpressure keeping the CPU at most len(slots)
// frames ahead of the GPU. The per-image owner table prevents two frames from
// recording or submitting against the same presentable image when the image
// count differs from the slot count.
//
// FrameSync is driven from a single thread and holds no locks.
type FrameSync struct {
	slots   []Fence
	owners  []Fence
	current int
}

// NewFrameSync creates a synchronizer over one fence per in-flight slot and
// an ownership table sized for imageCount presentable images. The fences must
// be created signaled so the first WaitCurrent does not block.
func NewFrameSync(slots []Fence, imageCount int) *FrameSync {
	return &FrameSync{
		slots:  slots,
		owners: make([]Fence, imageCount),
	}
}

// FramesInFlight returns the number of slots.
func (fs *FrameSync) FramesInFlight() int {
	return len(fs.slots)
}

// Current returns the index of the slot the next frame will use.
func (fs *FrameSync) Current() int {
	return fs.current
}

// WaitCurrent blocks until the GPU has finished the previous submission that
// used the current slot, making its fence and semaphores safe to reuse.
func (fs *FrameSync) WaitCurrent() error {
	return fs.slots[fs.current].Wait()
}

// ClaimImage records the current slot's fence as the owner of imageIndex.
// If a different slot's frame still targets the same image, its fence is
// waited out first, so at most one unfinished frame ever owns an image.
func (fs *FrameSync) ClaimImage(imageIndex uint32) error {
	cur := fs.slots[fs.current]
	if owner := fs.owners[imageIndex]; owner != nil && owner != cur {
		if err := owner.Wait(); err != nil {
			return err
		}
	}
	fs.owners[imageIndex] = cur
	return nil
}

// BeginSubmit resets the current slot's fence to unsignaled. It must be called
// only once the frame is certain to submit; resetting without submitting would
// deadlock the next wait on this slot.
func (fs *FrameSync) BeginSubmit() error {
	return fs.slots[fs.current].Reset()
}

// Advance moves to the next slot, cycling modulo the slot count.
func (fs *FrameSync) Advance() {
	fs.current = (fs.current + 1) % len(fs.slots)
}

// ResetImages discards the ownership table after a swap-chain rebuild. The
// caller must have drained the device first; old fences no longer guard
// images that no longer exist.
func (fs *FrameSync) ResetImages(imageCount int) {
	fs.owners = make([]Fence, imageCount)
}

// ImageOwner returns the fence currently using imageIndex, or nil if the
// image is free.
func (fs *FrameSync) ImageOwner(imageIndex uint32) Fence {
	return fs.owners[imageIndex]
}
