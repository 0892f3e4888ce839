// Copyright 2024 The vkcpu Authors. All rights reserved.

// Package runtime implements the Runtime Intrinsics table (C6): the
// process-global name→function-pointer table the JIT module host
// (package jit) resolves indirect calls against when a shader
// references a GLSL.std.450 extended instruction, an image sample/
// fetch/write, or a select/dot op the translator (package translate)
// lowered to a mangled-name call, per spec.md §4.6.
//
// Dispatch strips the type-tag suffix the translator appends
// ("@FAbs.F32[4]" -> "FAbs") and instead branches on the shape of the
// argument actually received at call time (scalar float64/int64 or a
// recursively-shaped []jit.Value), so one Go function serves every
// width/arity the translator's mangling scheme can produce for it.
package runtime

import (
	"math"
	"strings"
	"sync"

	"github.com/vkcpu/vkcpu/jit"
)

var (
	mu    sync.RWMutex
	table = map[string]jit.FuncPtr{}
)

func init() {
	register1("Floor", math.Floor)
	register1("Ceil", math.Ceil)
	register1("Round", math.Round)
	register1("Fract", func(x float64) float64 { return x - math.Floor(x) })
	register1("Sin", math.Sin)
	register1("Cos", math.Cos)
	register1("Tan", math.Tan)
	register1("Exp", math.Exp)
	register1("Log", math.Log)
	register1("Exp2", math.Exp2)
	register1("Log2", math.Log2)
	register1("Sqrt", math.Sqrt)
	register1("InverseSqrt", func(x float64) float64 { return 1 / math.Sqrt(x) })
	register1("FAbs", math.Abs)
	register1("FSign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})

	register2("Pow", math.Pow)
	register2("FMin", math.Min)
	register2("FMax", math.Max)

	registerIntrinsic("SAbs", intrinsicIntElementwise(func(x int64) int64 {
		if x < 0 {
			return -x
		}
		return x
	}))
	registerIntrinsic("SSign", intrinsicIntElementwise(func(x int64) int64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	}))
	registerIntrinsic("UMin", intrinsicIntElementwise2(func(a, b int64) int64 {
		if uint64(a) < uint64(b) {
			return a
		}
		return b
	}))
	registerIntrinsic("UMax", intrinsicIntElementwise2(func(a, b int64) int64 {
		if uint64(a) > uint64(b) {
			return a
		}
		return b
	}))
	registerIntrinsic("SMin", intrinsicIntElementwise2(func(a, b int64) int64 {
		if a < b {
			return a
		}
		return b
	}))
	registerIntrinsic("SMax", intrinsicIntElementwise2(func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	}))

	registerIntrinsic("FClamp", func(args []jit.Value) jit.Value {
		return elementwise3(args[0], args[1], args[2], func(x, lo, hi float64) float64 {
			return math.Min(math.Max(x, lo), hi)
		})
	})
	registerIntrinsic("FMix", func(args []jit.Value) jit.Value {
		return elementwise3(args[0], args[1], args[2], func(a, b, t float64) float64 {
			return a + (b-a)*t
		})
	})
	registerIntrinsic("Select", func(args []jit.Value) jit.Value {
		cond := args[0].(int64)
		if cond != 0 {
			return args[1]
		}
		return args[2]
	})

	registerIntrinsic("Dot", func(args []jit.Value) jit.Value {
		a := args[0].([]jit.Value)
		b := args[1].([]jit.Value)
		var sum float64
		for i := range a {
			sum += a[i].(float64) * b[i].(float64)
		}
		return sum
	})
	registerIntrinsic("MatrixTimesVector", func(args []jit.Value) jit.Value {
		m := args[0].([]jit.Value) // columns
		v := args[1].([]jit.Value)
		rows := len(m[0].([]jit.Value))
		out := make([]jit.Value, rows)
		for r := 0; r < rows; r++ {
			var sum float64
			for c := range m {
				sum += m[c].([]jit.Value)[r].(float64) * v[c].(float64)
			}
			out[r] = sum
		}
		return out
	})
	registerIntrinsic("VectorTimesMatrix", func(args []jit.Value) jit.Value {
		v := args[0].([]jit.Value)
		m := args[1].([]jit.Value) // columns
		out := make([]jit.Value, len(m))
		for c := range m {
			col := m[c].([]jit.Value)
			var sum float64
			for r := range col {
				sum += v[r].(float64) * col[r].(float64)
			}
			out[c] = sum
		}
		return out
	})
	registerIntrinsic("MatrixTimesMatrix", func(args []jit.Value) jit.Value {
		a := args[0].([]jit.Value) // columns of the left matrix
		b := args[1].([]jit.Value) // columns of the right matrix
		rows := len(a[0].([]jit.Value))
		out := make([]jit.Value, len(b))
		for c := range b {
			bcol := b[c].([]jit.Value)
			ocol := make([]jit.Value, rows)
			for r := 0; r < rows; r++ {
				var sum float64
				for k := range a {
					sum += a[k].([]jit.Value)[r].(float64) * bcol[k].(float64)
				}
				ocol[r] = sum
			}
			out[c] = ocol
		}
		return out
	})
	registerIntrinsic("Cross", func(args []jit.Value) jit.Value {
		a := args[0].([]jit.Value)
		b := args[1].([]jit.Value)
		ax, ay, az := a[0].(float64), a[1].(float64), a[2].(float64)
		bx, by, bz := b[0].(float64), b[1].(float64), b[2].(float64)
		return []jit.Value{ay*bz - az*by, az*bx - ax*bz, ax*by - ay*bx}
	})
	registerIntrinsic("Length", func(args []jit.Value) jit.Value {
		return math.Sqrt(dotSelf(args[0].([]jit.Value)))
	})
	registerIntrinsic("Distance", func(args []jit.Value) jit.Value {
		a := args[0].([]jit.Value)
		b := args[1].([]jit.Value)
		diff := make([]jit.Value, len(a))
		for i := range a {
			diff[i] = a[i].(float64) - b[i].(float64)
		}
		return math.Sqrt(dotSelf(diff))
	})
	registerIntrinsic("Normalize", func(args []jit.Value) jit.Value {
		v := args[0].([]jit.Value)
		length := math.Sqrt(dotSelf(v))
		out := make([]jit.Value, len(v))
		for i := range v {
			out[i] = v[i].(float64) / length
		}
		return out
	})
	registerIntrinsic("Reflect", func(args []jit.Value) jit.Value {
		i := args[0].([]jit.Value)
		n := args[1].([]jit.Value)
		d := dot(i, n)
		out := make([]jit.Value, len(i))
		for k := range i {
			out[k] = i[k].(float64) - 2*d*n[k].(float64)
		}
		return out
	})
	registerIntrinsic("Refract", func(args []jit.Value) jit.Value {
		i := args[0].([]jit.Value)
		n := args[1].([]jit.Value)
		eta := args[2].(float64)
		d := dot(i, n)
		k := 1 - eta*eta*(1-d*d)
		out := make([]jit.Value, len(i))
		if k < 0 {
			for idx := range out {
				out[idx] = float64(0)
			}
			return out
		}
		scale := eta*d + math.Sqrt(k)
		for idx := range i {
			out[idx] = eta*i[idx].(float64) - scale*n[idx].(float64)
		}
		return out
	})

	registerIntrinsic("ImageSample", imageSample)
	registerIntrinsic("ImageFetch", imageFetch)
	registerIntrinsic("ImageRead", imageFetch)
	registerIntrinsic("ImageWrite", imageWrite)
}

func register1(name string, f func(float64) float64) {
	registerIntrinsic(name, func(args []jit.Value) jit.Value { return elementwise1(args[0], f) })
}

func register2(name string, f func(float64, float64) float64) {
	registerIntrinsic(name, func(args []jit.Value) jit.Value { return elementwise2(args[0], args[1], f) })
}

func registerIntrinsic(baseName string, fn jit.FuncPtr) {
	mu.Lock()
	defer mu.Unlock()
	table[baseName] = fn
}

// Lookup resolves a mangled symbol name ("@FAbs.F32[4]" or bare
// "FAbs") to its implementation. It is the builtin resolver the JIT
// module host's symbol-priority chain falls back to.
func Lookup(name string) (jit.FuncPtr, bool) {
	base := strings.TrimPrefix(name, "@")
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := table[base]
	return fn, ok
}

func elementwise1(a jit.Value, f func(float64) float64) jit.Value {
	if v, ok := a.([]jit.Value); ok {
		out := make([]jit.Value, len(v))
		for i, e := range v {
			out[i] = elementwise1(e, f)
		}
		return out
	}
	return f(a.(float64))
}

func elementwise2(a, b jit.Value, f func(float64, float64) float64) jit.Value {
	if v, ok := a.([]jit.Value); ok {
		bv := b.([]jit.Value)
		out := make([]jit.Value, len(v))
		for i := range v {
			out[i] = elementwise2(v[i], bv[i], f)
		}
		return out
	}
	return f(a.(float64), b.(float64))
}

func elementwise3(a, b, c jit.Value, f func(float64, float64, float64) float64) jit.Value {
	if v, ok := a.([]jit.Value); ok {
		bv, cv := b.([]jit.Value), c.([]jit.Value)
		out := make([]jit.Value, len(v))
		for i := range v {
			out[i] = elementwise3(v[i], bv[i], cv[i], f)
		}
		return out
	}
	return f(a.(float64), b.(float64), c.(float64))
}

func intrinsicIntElementwise(f func(int64) int64) jit.FuncPtr {
	return func(args []jit.Value) jit.Value {
		var apply func(jit.Value) jit.Value
		apply = func(a jit.Value) jit.Value {
			if v, ok := a.([]jit.Value); ok {
				out := make([]jit.Value, len(v))
				for i, e := range v {
					out[i] = apply(e)
				}
				return out
			}
			return f(a.(int64))
		}
		return apply(args[0])
	}
}

func intrinsicIntElementwise2(f func(int64, int64) int64) jit.FuncPtr {
	return func(args []jit.Value) jit.Value {
		var apply func(a, b jit.Value) jit.Value
		apply = func(a, b jit.Value) jit.Value {
			if v, ok := a.([]jit.Value); ok {
				bv := b.([]jit.Value)
				out := make([]jit.Value, len(v))
				for i := range v {
					out[i] = apply(v[i], bv[i])
				}
				return out
			}
			return f(a.(int64), b.(int64))
		}
		return apply(args[0], args[1])
	}
}

func dot(a, b []jit.Value) float64 {
	var sum float64
	for i := range a {
		sum += a[i].(float64) * b[i].(float64)
	}
	return sum
}

func dotSelf(a []jit.Value) float64 { return dot(a, a) }
