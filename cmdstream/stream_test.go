// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package cmdstream

import (
	"testing"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/types"
)

func res(i uint32) types.Resource {
	return handle.New[types.ResourceMarker](i, 1)
}

func TestRoundTripSequence(t *testing.T) {
	w := NewWriter(1024)

	draw := Draw{
		PipelineState: handle.New[types.PipelineStateMarker](3, 1),
		VertexBuffer:  res(10),
		NumIndices:    36,
		Scissor:       types.NoScissor(),
	}
	draw.Arguments.Add(types.ShaderArgument{
		ConstantBuffer:       res(11),
		ConstantBufferOffset: 256,
	})
	draw.RootConstants[0] = 0xAA

	var trans TransitionResources
	trans.Add(res(10), types.StateVertexBuffer, types.StageVertex)
	trans.Add(res(12), types.StateCopyDest, types.StageNone)

	dispatch := Dispatch{
		PipelineState: handle.New[types.PipelineStateMarker](4, 1),
		X:             8, Y: 8, Z: 1,
	}

	copyBuf := CopyBuffer{
		Source:      res(12),
		Destination: res(13),
		SrcOffset:   64,
		DestOffset:  128,
		Size:        512,
	}

	label := BeginDebugLabel{Text: MakeLabel("upload pass")}

	w.Draw(&draw)
	w.TransitionResources(&trans)
	w.Dispatch(&dispatch)
	w.CopyBuffer(&copyBuf)
	w.BeginDebugLabel(&label)
	w.EndDebugLabel(&EndDebugLabel{})

	r := NewReader(w.Bytes())

	if got := r.PeekType(); got != CmdDraw {
		t.Fatalf("first tag = %v", got)
	}
	if got := *ReadAs[Draw](r); got != draw {
		t.Fatalf("draw round trip:\n got %+v\nwant %+v", got, draw)
	}
	if got := *ReadAs[TransitionResources](r); got != trans {
		t.Fatalf("transition round trip: %+v", got)
	}
	if got := *ReadAs[Dispatch](r); got != dispatch {
		t.Fatalf("dispatch round trip: %+v", got)
	}
	if got := *ReadAs[CopyBuffer](r); got != copyBuf {
		t.Fatalf("copy round trip: %+v", got)
	}
	if got := *ReadAs[BeginDebugLabel](r); got.Text.String() != "upload pass" {
		t.Fatalf("label round trip: %q", got.Text.String())
	}
	ReadAs[EndDebugLabel](r)

	if r.More() {
		t.Fatal("reader reports more commands past the end")
	}
}

func TestAllTagsRoundTrip(t *testing.T) {
	w := NewWriter(4096)

	w.Draw(&Draw{})
	w.DrawIndirect(&DrawIndirect{NumArguments: 2})
	w.Dispatch(&Dispatch{X: 1})
	w.TransitionResources(&TransitionResources{})
	w.BarrierUAV(&BarrierUAV{Count: 1, Resources: [types.MaxResourceTransitions]types.Resource{res(1)}})
	w.TransitionImageSlices(&TransitionImageSlices{})
	w.CopyBuffer(&CopyBuffer{Size: 1})
	w.CopyTexture(&CopyTexture{NumArraySlices: 1})
	w.CopyBufferToTexture(&CopyBufferToTexture{DestWidth: 4})
	w.CopyTextureToBuffer(&CopyTextureToBuffer{SrcWidth: 4})
	w.ResolveTexture(&ResolveTexture{})
	w.BeginRenderPass(&BeginRenderPass{Viewport: types.Viewport{Width: 16, Height: 16}})
	w.EndRenderPass(&EndRenderPass{})
	w.WriteTimestamp(&WriteTimestamp{Index: 3})
	w.ResolveQueries(&ResolveQueries{NumQueries: 4})
	w.BeginDebugLabel(&BeginDebugLabel{Text: MakeLabel("x")})
	w.EndDebugLabel(&EndDebugLabel{})
	w.UpdateBottomLevel(&UpdateBottomLevel{})
	w.UpdateTopLevel(&UpdateTopLevel{NumInstances: 2})
	w.DispatchRays(&DispatchRays{Width: 8, Height: 8, Depth: 1})
	w.ClearTextures(&ClearTextures{})
	w.CodeLocationMarker(&CodeLocationMarker{File: MakeLabel("render.go"), Line: 42})
	w.BeginProfileScope(&BeginProfileScope{Name: MakeLabel("frame")})
	w.EndProfileScope(&EndProfileScope{})

	want := []CmdType{
		CmdDraw, CmdDrawIndirect, CmdDispatch, CmdTransitionResources,
		CmdBarrierUAV, CmdTransitionImageSlices, CmdCopyBuffer, CmdCopyTexture,
		CmdCopyBufferToTexture, CmdCopyTextureToBuffer, CmdResolveTexture,
		CmdBeginRenderPass, CmdEndRenderPass, CmdWriteTimestamp,
		CmdResolveQueries, CmdBeginDebugLabel, CmdEndDebugLabel,
		CmdUpdateBottomLevel, CmdUpdateTopLevel, CmdDispatchRays,
		CmdClearTextures, CmdCodeLocationMarker, CmdBeginProfileScope,
		CmdEndProfileScope,
	}

	r := NewReader(w.Bytes())
	for i, tag := range want {
		if !r.More() {
			t.Fatalf("stream ended before command %d", i)
		}
		if got := r.PeekType(); got != tag {
			t.Fatalf("command %d: tag = %d, want %d", i, got, tag)
		}
		skipCommand(r, tag)
	}
	if r.More() {
		t.Fatal("trailing bytes after last command")
	}
}

// skipCommand consumes one command of the given tag.
func skipCommand(r *Reader, tag CmdType) {
	switch tag {
	case CmdDraw:
		ReadAs[Draw](r)
	case CmdDrawIndirect:
		ReadAs[DrawIndirect](r)
	case CmdDispatch:
		ReadAs[Dispatch](r)
	case CmdTransitionResources:
		ReadAs[TransitionResources](r)
	case CmdBarrierUAV:
		ReadAs[BarrierUAV](r)
	case CmdTransitionImageSlices:
		ReadAs[TransitionImageSlices](r)
	case CmdCopyBuffer:
		ReadAs[CopyBuffer](r)
	case CmdCopyTexture:
		ReadAs[CopyTexture](r)
	case CmdCopyBufferToTexture:
		ReadAs[CopyBufferToTexture](r)
	case CmdCopyTextureToBuffer:
		ReadAs[CopyTextureToBuffer](r)
	case CmdResolveTexture:
		ReadAs[ResolveTexture](r)
	case CmdBeginRenderPass:
		ReadAs[BeginRenderPass](r)
	case CmdEndRenderPass:
		ReadAs[EndRenderPass](r)
	case CmdWriteTimestamp:
		ReadAs[WriteTimestamp](r)
	case CmdResolveQueries:
		ReadAs[ResolveQueries](r)
	case CmdBeginDebugLabel:
		ReadAs[BeginDebugLabel](r)
	case CmdEndDebugLabel:
		ReadAs[EndDebugLabel](r)
	case CmdUpdateBottomLevel:
		ReadAs[UpdateBottomLevel](r)
	case CmdUpdateTopLevel:
		ReadAs[UpdateTopLevel](r)
	case CmdDispatchRays:
		ReadAs[DispatchRays](r)
	case CmdClearTextures:
		ReadAs[ClearTextures](r)
	case CmdCodeLocationMarker:
		ReadAs[CodeLocationMarker](r)
	case CmdBeginProfileScope:
		ReadAs[BeginProfileScope](r)
	case CmdEndProfileScope:
		ReadAs[EndProfileScope](r)
	}
}

func TestEmptyStream(t *testing.T) {
	r := NewReader(nil)
	if r.More() {
		t.Fatal("empty stream reports commands")
	}
}

func TestCorruptTagIsFatal(t *testing.T) {
	r := NewReader([]byte{0xFF})
	defer func() {
		if recover() == nil {
			t.Fatal("corrupt tag did not panic")
		}
	}()
	r.PeekType()
}
