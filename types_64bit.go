//go:build linux && (amd64 || arm64 || riscv64 || ppc64le || loong64)

package sndpcm

// culong is the C `unsigned long` type on 64-bit systems.
type culong = uint64
