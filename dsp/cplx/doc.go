// Package cplx provides a small complex-number value type used by the
// reference radix-2 transform.
//
// Values are plain structs: copying is free and no operation mutates its
// receiver. Hot paths that need throughput operate on []complex128 instead
// (see package fft).
package cplx
