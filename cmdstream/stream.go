// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package cmdstream

import (
	"unsafe"

	"github.com/embergpu/hal/internal/diag"
)

// Writer appends tagged commands to a growable byte buffer. Encoding is
// [u8 tag][padding to the command's alignment][command bytes]; the
// padding keeps decoded command pointers naturally aligned so the reader
// can hand out direct views into the buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the encoded size in bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Reset empties the buffer for reuse.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// write encodes one tagged command.
func write[T any](w *Writer, tag CmdType, cmd *T) {
	size := int(unsafe.Sizeof(*cmd))
	align := int(unsafe.Alignof(*cmd))

	start := len(w.buf)
	bodyStart := alignUp(start+1, align)
	w.buf = append(w.buf, make([]byte, bodyStart+size-start)...)
	w.buf[start] = byte(tag)
	src := unsafe.Slice((*byte)(unsafe.Pointer(cmd)), size)
	copy(w.buf[bodyStart:], src)
}

// Per-command append methods; one per member of the closed set.

func (w *Writer) Draw(cmd *Draw)                 { write(w, CmdDraw, cmd) }
func (w *Writer) DrawIndirect(cmd *DrawIndirect) { write(w, CmdDrawIndirect, cmd) }
func (w *Writer) Dispatch(cmd *Dispatch)         { write(w, CmdDispatch, cmd) }
func (w *Writer) TransitionResources(cmd *TransitionResources) {
	write(w, CmdTransitionResources, cmd)
}
func (w *Writer) BarrierUAV(cmd *BarrierUAV) { write(w, CmdBarrierUAV, cmd) }
func (w *Writer) TransitionImageSlices(cmd *TransitionImageSlices) {
	write(w, CmdTransitionImageSlices, cmd)
}
func (w *Writer) CopyBuffer(cmd *CopyBuffer)   { write(w, CmdCopyBuffer, cmd) }
func (w *Writer) CopyTexture(cmd *CopyTexture) { write(w, CmdCopyTexture, cmd) }
func (w *Writer) CopyBufferToTexture(cmd *CopyBufferToTexture) {
	write(w, CmdCopyBufferToTexture, cmd)
}
func (w *Writer) CopyTextureToBuffer(cmd *CopyTextureToBuffer) {
	write(w, CmdCopyTextureToBuffer, cmd)
}
func (w *Writer) ResolveTexture(cmd *ResolveTexture)   { write(w, CmdResolveTexture, cmd) }
func (w *Writer) BeginRenderPass(cmd *BeginRenderPass) { write(w, CmdBeginRenderPass, cmd) }
func (w *Writer) EndRenderPass(cmd *EndRenderPass)     { write(w, CmdEndRenderPass, cmd) }
func (w *Writer) WriteTimestamp(cmd *WriteTimestamp)   { write(w, CmdWriteTimestamp, cmd) }
func (w *Writer) ResolveQueries(cmd *ResolveQueries)   { write(w, CmdResolveQueries, cmd) }
func (w *Writer) BeginDebugLabel(cmd *BeginDebugLabel) { write(w, CmdBeginDebugLabel, cmd) }
func (w *Writer) EndDebugLabel(cmd *EndDebugLabel)     { write(w, CmdEndDebugLabel, cmd) }
func (w *Writer) UpdateBottomLevel(cmd *UpdateBottomLevel) {
	write(w, CmdUpdateBottomLevel, cmd)
}
func (w *Writer) UpdateTopLevel(cmd *UpdateTopLevel) { write(w, CmdUpdateTopLevel, cmd) }
func (w *Writer) DispatchRays(cmd *DispatchRays)     { write(w, CmdDispatchRays, cmd) }
func (w *Writer) ClearTextures(cmd *ClearTextures)   { write(w, CmdClearTextures, cmd) }
func (w *Writer) CodeLocationMarker(cmd *CodeLocationMarker) {
	write(w, CmdCodeLocationMarker, cmd)
}
func (w *Writer) BeginProfileScope(cmd *BeginProfileScope) {
	write(w, CmdBeginProfileScope, cmd)
}
func (w *Writer) EndProfileScope(cmd *EndProfileScope) { write(w, CmdEndProfileScope, cmd) }

// Reader iterates a stream produced by Writer. The usual shape is a loop
// over More/PeekType with a type switch, calling ReadAs in each arm:
//
//	for r.More() {
//		switch r.PeekType() {
//		case CmdDraw:
//			draw := cmdstream.ReadAs[cmdstream.Draw](r)
//			...
//		}
//	}
type Reader struct {
	buf  []byte
	head int
}

// NewReader creates a Reader over an encoded stream.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// More reports whether commands remain.
func (r *Reader) More() bool { return r.head < len(r.buf) }

// PeekType returns the tag of the next command without consuming it.
func (r *Reader) PeekType() CmdType {
	if !r.More() {
		diag.Fatalf("cmdstream: PeekType past end of stream")
	}
	tag := CmdType(r.buf[r.head])
	if tag >= numCmdTypes {
		diag.Fatalf("cmdstream: corrupt stream: tag %d at offset %d", tag, r.head)
	}
	return tag
}

// ReadAs consumes the next command, which must carry the tag matching T,
// and returns a pointer aliasing the stream buffer. The pointer is valid
// for the life of the buffer; commands read this way are never written
// through.
func ReadAs[T any](r *Reader) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))

	bodyStart := alignUp(r.head+1, align)
	if bodyStart+size > len(r.buf) {
		diag.Fatalf("cmdstream: truncated command at offset %d", r.head)
	}
	r.head = bodyStart + size
	if size == 0 {
		return &zero
	}
	return (*T)(unsafe.Pointer(&r.buf[bodyStart]))
}

// Reset rewinds the reader to the start of the stream.
func (r *Reader) Reset() { r.head = 0 }
