// Package functions plugs the numeric kernels into any reverse-mode AD host.
//
// Every function follows the same adapter pattern:
//
//  1. construct a partials.OperandsAndPartials from the raw operands, which
//     classifies each one and allocates edge buffers for the differentiable ones
//  2. strip the operands to plain float64 values
//  3. call the kernel with the edge buffers and the matching Flags, so the
//     kernel writes partials straight into edge storage
//  4. build the terminal node from the value and the filled edges
//
// The functions are generic over the host node type N and only need a
// partials.Builder[N]. Kernel errors are returned wrapped, so errors.Is
// against the kernel sentinels keeps working.
package functions
