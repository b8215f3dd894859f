//go:build llama

package manager

// cgo link directives for the in-process adapter.
// - rpath $ORIGIN lets the runtime loader find libllama.so next to the
//   built binary (./bin).
// - -L${SRCDIR}/../../bin lets the linker find libllama.so when
//   building the 'llama' variant. No environment variables required.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
