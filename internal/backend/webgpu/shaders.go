//go:build windows

package webgpu

// WGSL compute shaders for pooling operations.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// adaptiveAvgPool2dShader computes one output cell per invocation.
// Bin boundaries follow the adaptive formula:
// start = floor(o*in/out), end = ceil((o+1)*in/out).
const adaptiveAvgPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    planes: u32,   // batch * channels
    h: u32,
    w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.planes * params.out_h * params.out_w;
    if (idx >= total) {
        return;
    }

    let plane = idx / (params.out_h * params.out_w);
    let rem = idx % (params.out_h * params.out_w);
    let oy = rem / params.out_w;
    let ox = rem % params.out_w;

    let h0 = (oy * params.h) / params.out_h;
    let h1 = ((oy + 1u) * params.h + params.out_h - 1u) / params.out_h;
    let w0 = (ox * params.w) / params.out_w;
    let w1 = ((ox + 1u) * params.w + params.out_w - 1u) / params.out_w;

    var sum: f32 = 0.0;
    for (var y = h0; y < h1; y = y + 1u) {
        for (var x = w0; x < w1; x = x + 1u) {
            sum = sum + input[plane * params.h * params.w + y * params.w + x];
        }
    }
    output[idx] = sum / f32((h1 - h0) * (w1 - w0));
}
`

// adaptiveAvgPool2dBackwardShader computes one input cell per invocation,
// gathering contributions from every output bin covering the cell.
// Gathering (rather than scattering) avoids atomics on f32.
const adaptiveAvgPool2dBackwardShader = `
@group(0) @binding(0) var<storage, read> grad_output: array<f32>;
@group(0) @binding(1) var<storage, read_write> grad_input: array<f32>;

struct Params {
    planes: u32,   // batch * channels
    h: u32,
    w: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.planes * params.h * params.w;
    if (idx >= total) {
        return;
    }

    let plane = idx / (params.h * params.w);
    let rem = idx % (params.h * params.w);
    let y = rem / params.w;
    let x = rem % params.w;

    var acc: f32 = 0.0;
    for (var oy = 0u; oy < params.out_h; oy = oy + 1u) {
        let h0 = (oy * params.h) / params.out_h;
        let h1 = ((oy + 1u) * params.h + params.out_h - 1u) / params.out_h;
        if (y < h0 || y >= h1) {
            continue;
        }
        for (var ox = 0u; ox < params.out_w; ox = ox + 1u) {
            let w0 = (ox * params.w) / params.out_w;
            let w1 = ((ox + 1u) * params.w + params.out_w - 1u) / params.out_w;
            if (x < w0 || x >= w1) {
                continue;
            }
            let g = grad_output[plane * params.out_h * params.out_w + oy * params.out_w + ox];
            acc = acc + g / f32((h1 - h0) * (w1 - w0));
        }
    }
    grad_input[idx] = grad_input[idx] + acc;
}
`

// meanHWShader reduces each channel plane to its mean, keeping the
// spatial dimensions with size 1.
const meanHWShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    planes: u32,   // batch * channels
    h: u32,
    w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let plane = global_id.x;
    if (plane >= params.planes) {
        return;
    }

    let size = params.h * params.w;
    var sum: f32 = 0.0;
    for (var i = 0u; i < size; i = i + 1u) {
        sum = sum + input[plane * size + i];
    }
    output[plane] = sum / f32(size);
}
`
