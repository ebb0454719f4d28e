// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"

	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/types"
)

// TranslatedShader is the result of a WGSL translation: the generated
// HLSL source as an opaque blob, plus the per-stage entry point names the
// generator assigned.
type TranslatedShader struct {
	Binary      types.ShaderBinary
	EntryPoints map[types.ShaderStageFlags]string
}

// TranslateWGSL lowers WGSL source through the IR to HLSL text and wraps
// it as the opaque shader blob handed to the native layer. CreateGraphics
// and CreateCompute call this for any stage that supplies WGSL source
// instead of a precompiled blob; shader compilation proper stays outside
// the HAL.
//
// Pipeline: WGSL -> parse -> IR -> HLSL.
func TranslateWGSL(wgslSource string) (TranslatedShader, error) {
	ast, err := naga.Parse(wgslSource)
	if err != nil {
		return TranslatedShader{}, fmt.Errorf("pipeline: WGSL parse: %w", err)
	}

	irModule, err := naga.LowerWithSource(ast, wgslSource)
	if err != nil {
		return TranslatedShader{}, fmt.Errorf("pipeline: WGSL lower: %w", err)
	}

	hlslSource, info, err := hlsl.Compile(irModule, hlsl.DefaultOptions())
	if err != nil {
		return TranslatedShader{}, fmt.Errorf("pipeline: HLSL generation: %w", err)
	}

	out := TranslatedShader{
		Binary:      types.ShaderBinary{Data: []byte(hlslSource)},
		EntryPoints: map[types.ShaderStageFlags]string{},
	}
	for _, ep := range irModule.EntryPoints {
		name := ep.Name
		if info != nil && info.EntryPointNames != nil {
			if mapped, ok := info.EntryPointNames[ep.Name]; ok {
				name = mapped
			}
		}
		out.EntryPoints[stageFlag(ep.Stage)] = name
	}
	return out, nil
}

// resolveBinary returns the blob form of bin, lowering WGSL source when
// no precompiled blob was supplied. Translation failure is fatal like
// any other pipeline compile failure.
func resolveBinary(bin types.ShaderBinary) types.ShaderBinary {
	if len(bin.Data) > 0 || bin.WGSL == "" {
		return bin
	}
	translated, err := TranslateWGSL(bin.WGSL)
	if err != nil {
		diag.Fatalf("pipeline: WGSL translation failed: %v", err)
	}
	return translated.Binary
}

func stageFlag(stage ir.ShaderStage) types.ShaderStageFlags {
	switch stage {
	case ir.StageVertex:
		return types.StageVertex
	case ir.StageFragment:
		return types.StagePixel
	case ir.StageCompute:
		return types.StageCompute
	}
	return types.StageNone
}
